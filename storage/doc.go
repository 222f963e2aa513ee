// Package storage defines the object-storage operations that bootstrap
// tasks need: checking and creating buckets, and reading and writing bucket
// policies.
//
// # Backends
//
//   - storage/s3: Amazon S3 and S3-compatible services such as MinIO
//   - storage/memory: in-process implementation for tests and dry runs
//
// # Configuration
//
//	tasks:
//	  - id: bootstrap-bucket
//	    kind: s3-bucket
//	    bucket: uploads
//	    s3:
//	      endpoint: http://localhost:9000
//	      access_key: minio
//	      secret_key: minio123
package storage
