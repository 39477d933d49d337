// Package source retrieves option files. Local paths and directories are read
// from disk; http(s)://, s3:// and gs:// URIs are fetched from the network.
package source
