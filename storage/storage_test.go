package storage

import (
	"context"
	"fmt"
	"reflect"
	"testing"
)

func testStorage(t *testing.T, store Storage) {
	ctx := context.Background()

	if _, err := store.Read(ctx, "capsules/missing/capsule.json"); err != ErrNotFound {
		t.Fatalf("Wrong error for missing key : %v", err)
	}

	if err := store.Remove(ctx, "capsules/missing/capsule.json"); err != ErrNotFound {
		t.Fatalf("Wrong error for missing remove : %v", err)
	}

	var keys []string
	for i := 0; i < 3; i++ {
		key := fmt.Sprintf("capsules/id%d/capsule.json", i)
		keys = append(keys, key)

		if err := store.Write(ctx, key, []byte(key), nil); err != nil {
			t.Fatalf("Failed to write %s : %s", key, err)
		}
	}

	other := "other/value"
	if err := store.Write(ctx, other, []byte("other"), nil); err != nil {
		t.Fatalf("Failed to write %s : %s", other, err)
	}

	for _, key := range keys {
		got, err := store.Read(ctx, key)
		if err != nil {
			t.Fatalf("Failed to read %s : %s", key, err)
		}

		if string(got) != key {
			t.Errorf("Wrong value : got %s, want %s", got, key)
		}
	}

	// Overwrite
	if err := store.Write(ctx, keys[0], []byte("updated"), nil); err != nil {
		t.Fatalf("Failed to overwrite : %s", err)
	}

	got, err := store.Read(ctx, keys[0])
	if err != nil {
		t.Fatalf("Failed to read : %s", err)
	}

	if string(got) != "updated" {
		t.Errorf("Wrong overwritten value : %s", got)
	}

	list, err := store.List(ctx, "capsules/")
	if err != nil {
		t.Fatalf("Failed to list : %s", err)
	}

	if !reflect.DeepEqual(list, keys) {
		t.Errorf("Wrong list\ngot:%v\nwant:%v", list, keys)
	}

	if err := store.Remove(ctx, keys[1]); err != nil {
		t.Fatalf("Failed to remove : %s", err)
	}

	if _, err := store.Read(ctx, keys[1]); err != ErrNotFound {
		t.Fatalf("Wrong error for removed key : %v", err)
	}

	list, err = store.List(ctx, "capsules/")
	if err != nil {
		t.Fatalf("Failed to list : %s", err)
	}

	want := []string{keys[0], keys[2]}
	if !reflect.DeepEqual(list, want) {
		t.Errorf("Wrong list after remove\ngot:%v\nwant:%v", list, want)
	}
}

func TestMockStorage(t *testing.T) {
	testStorage(t, NewMockStorage())
}

func TestFilesystemStorage(t *testing.T) {
	testStorage(t, NewFilesystemStorage(NewConfig(BucketStandalone, t.TempDir())))
}

func TestBadgerStorage(t *testing.T) {
	store, err := NewBadgerStorage(NewConfig(BucketBadger, t.TempDir()))
	if err != nil {
		t.Fatalf("Failed to open badger : %s", err)
	}
	defer Close(store)

	testStorage(t, store)
}

func TestBadgerStorageReopen(t *testing.T) {
	ctx := context.Background()
	config := NewConfig(BucketBadger, t.TempDir())

	store, err := NewBadgerStorage(config)
	if err != nil {
		t.Fatalf("Failed to open badger : %s", err)
	}

	if err := store.Write(ctx, "capsules/a/capsule.json", []byte("a"), nil); err != nil {
		t.Fatalf("Failed to write : %s", err)
	}

	if err := store.Close(); err != nil {
		t.Fatalf("Failed to close : %s", err)
	}

	store, err = NewBadgerStorage(config)
	if err != nil {
		t.Fatalf("Failed to reopen badger : %s", err)
	}
	defer store.Close()

	got, err := store.Read(ctx, "capsules/a/capsule.json")
	if err != nil {
		t.Fatalf("Failed to read : %s", err)
	}

	if string(got) != "a" {
		t.Fatalf("Wrong value : %s", got)
	}
}

func TestCreateStorage(t *testing.T) {
	root := t.TempDir()

	tests := []struct {
		bucket string
		want   string
	}{
		{BucketStandalone, "*storage.FilesystemStorage"},
		{"Standalone", "*storage.FilesystemStorage"},
		{BucketMock, "*storage.MockStorage"},
		{BucketBadger, "*storage.BadgerStorage"},
		{"capsule-bucket", "storage.S3Storage"},
	}

	for _, tt := range tests {
		t.Run(tt.bucket, func(t *testing.T) {
			store, err := CreateStorage(Config{
				Bucket: tt.bucket,
				Root:   root,
				Region: "us-east-1",
			})
			if err != nil {
				t.Fatalf("Failed to create storage : %s", err)
			}
			defer Close(store)

			if got := reflect.TypeOf(store).String(); got != tt.want {
				t.Fatalf("Wrong storage type : got %s, want %s", got, tt.want)
			}
		})
	}

	if _, err := CreateStorage(Config{}); err == nil {
		t.Fatalf("Created storage without bucket")
	}
}
