package source

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"strings"
	"sync"
	"time"

	"cloud.google.com/go/storage"
	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/vk/gridlaunch/internal/config"
	"github.com/vk/gridlaunch/internal/ctxlog"
	"github.com/vk/gridlaunch/internal/fsutil"
	"google.golang.org/api/option"
)

// ErrNotFound reports a local option file or directory that does not exist.
var ErrNotFound = errors.New("option file not found")

// Extensions lists the option file extensions picked up from directories.
var Extensions = []string{".hcl", ".json"}

// S3API is the part of the S3 client the fetcher needs.
type S3API interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// Fetcher reads and writes option files and artifacts by URI. The zero value
// is ready to use; cloud clients are created on first use.
type Fetcher struct {
	HTTPClient *http.Client
	S3Client   S3API
	GCSOptions []option.ClientOption

	s3Once sync.Once
	s3Err  error
}

// Default is the fetcher used by the package-level helpers.
var Default = &Fetcher{}

// Resolve expands uri into the option files it names. Remote URIs are
// returned unchanged; a local directory yields its option files.
func Resolve(ctx context.Context, uri string) ([]string, error) {
	if isRemote(uri) {
		return []string{uri}, nil
	}
	p := localPath(uri)
	info, err := os.Stat(p)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, uri)
		}
		return nil, err
	}
	if !info.IsDir() {
		return []string{p}, nil
	}
	files, err := fsutil.FindFilesByExtension(p, Extensions...)
	if err != nil {
		return nil, fmt.Errorf("failed to scan %s: %w", uri, err)
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("%w: no %s files in directory %s", ErrNotFound, strings.Join(Extensions, " or "), uri)
	}
	ctxlog.FromContext(ctx).Debug("Expanded option directory.", "dir", uri, "files", len(files))
	return files, nil
}

// FetchAll resolves every uri and fetches the resulting files in order.
func (f *Fetcher) FetchAll(ctx context.Context, uris ...string) ([]config.File, error) {
	var out []config.File
	for _, uri := range uris {
		names, err := Resolve(ctx, uri)
		if err != nil {
			return nil, err
		}
		for _, name := range names {
			file, err := f.Fetch(ctx, name)
			if err != nil {
				return nil, err
			}
			out = append(out, file)
		}
	}
	return out, nil
}

// Fetch reads a single file. The returned name keeps the URI so that error
// messages and value origins point at it.
func (f *Fetcher) Fetch(ctx context.Context, uri string) (config.File, error) {
	logger := ctxlog.FromContext(ctx)
	var (
		data []byte
		err  error
	)
	switch scheme(uri) {
	case "", "file":
		data, err = os.ReadFile(localPath(uri))
		if errors.Is(err, os.ErrNotExist) {
			err = fmt.Errorf("%w: %s", ErrNotFound, uri)
		}
	case "http", "https":
		data, err = f.fetchHTTP(ctx, uri)
	case "s3":
		data, err = f.fetchS3(ctx, uri)
	case "gs":
		data, err = f.fetchGCS(ctx, uri)
	default:
		err = fmt.Errorf("unsupported scheme in %q", uri)
	}
	if err != nil {
		return config.File{}, fmt.Errorf("failed to fetch %s: %w", uri, err)
	}
	logger.Debug("Fetched option file.", "uri", uri, "bytes", len(data))
	return config.File{Name: uri, Bytes: data}, nil
}

// Put stores data at a local path, an s3:// or a gs:// URI.
func (f *Fetcher) Put(ctx context.Context, uri string, data []byte, contentType string) error {
	var err error
	switch scheme(uri) {
	case "", "file":
		err = os.WriteFile(localPath(uri), data, 0o644)
	case "s3":
		err = f.putS3(ctx, uri, data, contentType)
	case "gs":
		err = f.putGCS(ctx, uri, data, contentType)
	default:
		err = fmt.Errorf("unsupported scheme in %q", uri)
	}
	if err != nil {
		return fmt.Errorf("failed to store %s: %w", uri, err)
	}
	return nil
}

func (f *Fetcher) fetchHTTP(ctx context.Context, uri string) ([]byte, error) {
	client := f.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, uri, nil)
	if err != nil {
		return nil, err
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %s", resp.Status)
	}
	return io.ReadAll(resp.Body)
}

func (f *Fetcher) s3Client(ctx context.Context) (S3API, error) {
	f.s3Once.Do(func() {
		if f.S3Client != nil {
			return
		}
		cfg, err := awsconfig.LoadDefaultConfig(ctx)
		if err != nil {
			f.s3Err = fmt.Errorf("failed to load AWS config: %w", err)
			return
		}
		f.S3Client = s3.NewFromConfig(cfg)
	})
	return f.S3Client, f.s3Err
}

func (f *Fetcher) fetchS3(ctx context.Context, uri string) ([]byte, error) {
	bucket, key, err := splitBucketURI(uri)
	if err != nil {
		return nil, err
	}
	client, err := f.s3Client(ctx)
	if err != nil {
		return nil, err
	}
	out, err := client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, err
	}
	defer out.Body.Close()
	return io.ReadAll(out.Body)
}

func (f *Fetcher) putS3(ctx context.Context, uri string, data []byte, contentType string) error {
	bucket, key, err := splitBucketURI(uri)
	if err != nil {
		return err
	}
	client, err := f.s3Client(ctx)
	if err != nil {
		return err
	}
	_, err = client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(bucket),
		Key:         aws.String(key),
		Body:        strings.NewReader(string(data)),
		ContentType: aws.String(contentType),
	})
	return err
}

func (f *Fetcher) fetchGCS(ctx context.Context, uri string) ([]byte, error) {
	bucket, key, err := splitBucketURI(uri)
	if err != nil {
		return nil, err
	}
	client, err := storage.NewClient(ctx, f.GCSOptions...)
	if err != nil {
		return nil, fmt.Errorf("failed to create storage client: %w", err)
	}
	defer client.Close()

	reader, err := client.Bucket(bucket).Object(key).NewReader(ctx)
	if err != nil {
		return nil, err
	}
	defer reader.Close()
	return io.ReadAll(reader)
}

func (f *Fetcher) putGCS(ctx context.Context, uri string, data []byte, contentType string) error {
	bucket, key, err := splitBucketURI(uri)
	if err != nil {
		return err
	}
	client, err := storage.NewClient(ctx, f.GCSOptions...)
	if err != nil {
		return fmt.Errorf("failed to create storage client: %w", err)
	}
	defer client.Close()

	w := client.Bucket(bucket).Object(key).NewWriter(ctx)
	w.ContentType = contentType
	if _, err := w.Write(data); err != nil {
		w.Close()
		return err
	}
	return w.Close()
}

func scheme(uri string) string {
	i := strings.Index(uri, "://")
	if i <= 0 {
		return ""
	}
	return strings.ToLower(uri[:i])
}

func isRemote(uri string) bool {
	s := scheme(uri)
	return s != "" && s != "file"
}

func localPath(uri string) string {
	return strings.TrimPrefix(uri, "file://")
}

// splitBucketURI splits s3://bucket/key and gs://bucket/key.
func splitBucketURI(uri string) (bucket, key string, err error) {
	u, err := url.Parse(uri)
	if err != nil {
		return "", "", err
	}
	key = strings.TrimPrefix(path.Clean("/"+u.Path), "/")
	if u.Host == "" || key == "" || key == "." {
		return "", "", fmt.Errorf("expected %s://bucket/key, got %q", u.Scheme, uri)
	}
	return u.Host, key, nil
}
