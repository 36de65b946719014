package storage

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

type fakeObjects struct {
	objects      map[string][]byte
	contentTypes map[string]string
}

func newFakeObjects() *fakeObjects {
	return &fakeObjects{objects: map[string][]byte{}, contentTypes: map[string]string{}}
}

func (f *fakeObjects) GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	data, ok := f.objects[aws.ToString(params.Key)]
	if !ok {
		return nil, errors.New("NoSuchKey")
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(bytes.NewReader(data))}, nil
}

func (f *fakeObjects) PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	data, err := io.ReadAll(params.Body)
	if err != nil {
		return nil, err
	}
	key := aws.ToString(params.Key)
	f.objects[key] = data
	f.contentTypes[key] = aws.ToString(params.ContentType)
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeObjects) DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	delete(f.objects, aws.ToString(params.Key))
	return &s3.DeleteObjectOutput{}, nil
}

func TestStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	objects := newFakeObjects()
	st := NewStore(objects, "forms")

	key, err := st.PutFile(ctx, "results/", "scan.CSV", "job42", strings.NewReader("EMAIL ,a@b.com \n"))
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if key != "results/job42.csv" {
		t.Fatalf("unexpected key %q", key)
	}
	if ct := objects.contentTypes[key]; !strings.HasPrefix(ct, "text/csv") {
		t.Fatalf("unexpected content type %q", ct)
	}

	data, err := st.GetFile(ctx, key)
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if string(data) != "EMAIL ,a@b.com \n" {
		t.Fatalf("unexpected content %q", data)
	}

	if err := st.DeleteFile(ctx, key); err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if _, err := st.GetFile(ctx, key); err == nil {
		t.Fatal("expected error after delete")
	}
}

func TestStoreDownloadLinkUnsupported(t *testing.T) {
	st := NewStore(newFakeObjects(), "forms")
	if _, err := st.GenerateDownloadLink(context.Background(), "x.csv"); err == nil {
		t.Fatal("expected error without presign support")
	}
}
