// Package workload runs stack services as containers.
//
// A Manager deploys, inspects and removes named containers; workload/docker
// implements it on the Docker Engine API. Starter adapts a Manager to the
// orchestrator's start and stop actions and Checker to a readiness probe of
// kind "container", so a service can be declared by image alone:
//
//	services:
//	  - id: storage
//	    container:
//	      image: minio/minio:latest
//	      command: [server, /data]
//	      ports: ["9000:9000"]
//
// Start is idempotent: a running container with the same name is adopted
// instead of recreated.
package workload
