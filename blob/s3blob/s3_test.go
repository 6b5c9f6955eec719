package s3blob

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

type fakeS3 struct {
	put     map[string][]byte
	types   map[string]string
	deleted []string
	err     error
}

func newFakeS3() *fakeS3 {
	return &fakeS3{put: map[string][]byte{}, types: map[string]string{}}
}

func (f *fakeS3) Upload(_ context.Context, in *s3.PutObjectInput, _ ...func(*manager.Uploader)) (*manager.UploadOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	data, _ := io.ReadAll(in.Body)
	f.put[aws.ToString(in.Key)] = data
	f.types[aws.ToString(in.Key)] = aws.ToString(in.ContentType)
	return &manager.UploadOutput{}, nil
}

func (f *fakeS3) DeleteObject(_ context.Context, in *s3.DeleteObjectInput, _ ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.deleted = append(f.deleted, aws.ToString(in.Key))
	return &s3.DeleteObjectOutput{}, nil
}

func TestPutAndDelete(t *testing.T) {
	fake := newFakeS3()
	s := &Store{uploader: fake, client: fake, cfg: Config{Bucket: "rooms", Region: "eu-west-1"}}

	url, err := s.Put(context.Background(), "rooms/r1/a b.png", "image/png", []byte("img"))
	if err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	if url != "https://rooms.s3.eu-west-1.amazonaws.com/rooms/r1/a%20b.png" {
		t.Fatalf("unexpected url %q", url)
	}
	if string(fake.put["rooms/r1/a b.png"]) != "img" || fake.types["rooms/r1/a b.png"] != "image/png" {
		t.Fatal("object not uploaded as expected")
	}

	if err := s.Delete(context.Background(), "rooms/r1/a b.png"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if len(fake.deleted) != 1 {
		t.Fatalf("expected one delete, got %v", fake.deleted)
	}
}

func TestObjectURLVariants(t *testing.T) {
	s := &Store{cfg: Config{Bucket: "b", Endpoint: "http://minio:9000/"}}
	if got := s.objectURL("k.png"); got != "http://minio:9000/b/k.png" {
		t.Fatalf("unexpected endpoint url %q", got)
	}
	s.cfg.PublicBaseURL = "https://cdn.example/"
	if got := s.objectURL("k.png"); got != "https://cdn.example/k.png" {
		t.Fatalf("unexpected public url %q", got)
	}
}

func TestPutWrapsErrors(t *testing.T) {
	fake := newFakeS3()
	fake.err = errors.New("access denied")
	s := &Store{uploader: fake, client: fake, cfg: Config{Bucket: "b"}}

	if _, err := s.Put(context.Background(), "k", "image/png", nil); !errors.Is(err, fake.err) {
		t.Fatalf("expected wrapped error, got %v", err)
	}
}
