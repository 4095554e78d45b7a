// Package storage wraps the Minio S3 client behind a narrow interface so
// the run archive and the source drop-box can be tested against mocks.
package storage
