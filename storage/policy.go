package storage

import (
	"encoding/json"
	"fmt"
	"reflect"
)

// PolicyDocument is an S3 bucket policy.
type PolicyDocument struct {
	Version   string            `json:"Version"`
	Statement []PolicyStatement `json:"Statement"`
}

// PolicyStatement is one statement of a bucket policy.
type PolicyStatement struct {
	Sid       string         `json:"Sid,omitempty"`
	Effect    string         `json:"Effect"`
	Principal map[string]any `json:"Principal"`
	Action    []string       `json:"Action"`
	Resource  []string       `json:"Resource"`
}

// PublicReadPolicy returns the policy that lets anonymous clients download
// objects of bucket. It is the policy "mc anonymous set download" applies.
func PublicReadPolicy(bucket string) string {
	doc := PolicyDocument{
		Version: "2012-10-17",
		Statement: []PolicyStatement{{
			Sid:       "PublicRead",
			Effect:    "Allow",
			Principal: map[string]any{"AWS": []string{"*"}},
			Action:    []string{"s3:GetObject"},
			Resource:  []string{fmt.Sprintf("arn:aws:s3:::%s/*", bucket)},
		}},
	}
	b, _ := json.Marshal(doc)
	return string(b)
}

// PolicyEqual reports whether two policy documents are semantically equal,
// ignoring whitespace and key order. Servers are free to reformat a policy
// on write, so byte comparison is not enough to verify one.
func PolicyEqual(a, b string) (bool, error) {
	var da, db any
	if err := json.Unmarshal([]byte(a), &da); err != nil {
		return false, fmt.Errorf("storage: parse policy: %w", err)
	}
	if err := json.Unmarshal([]byte(b), &db); err != nil {
		return false, fmt.Errorf("storage: parse policy: %w", err)
	}
	return reflect.DeepEqual(normalizePolicy(da), normalizePolicy(db)), nil
}

// normalizePolicy turns single-string Action/Resource/AWS values into
// one-element lists, the two forms being equivalent in IAM grammar.
func normalizePolicy(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			switch k {
			case "Action", "Resource", "AWS":
				if s, ok := val.(string); ok {
					out[k] = []any{s}
					continue
				}
			}
			out[k] = normalizePolicy(val)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, val := range t {
			out[i] = normalizePolicy(val)
		}
		return out
	default:
		return v
	}
}
