package gcp

import "testing"

func testBuckets(images, docs bucket) map[BucketCategory]bucket {
	return map[BucketCategory]bucket{BucketCategoryImage: images, BucketCategoryDocument: docs}
}

func TestGetPublicURL(t *testing.T) {
	cases := []struct {
		name     string
		bs       *bucketService
		category BucketCategory
		key      string
		want     string
	}{
		{
			name:     "gcs default",
			bs:       &bucketService{buckets: testBuckets(bucket{name: "farm-images"}, bucket{name: "farm-docs"})},
			category: BucketCategoryImage,
			key:      "pages/home/images/1-a-barn.jpg",
			want:     "https://storage.googleapis.com/farm-images/pages/home/images/1-a-barn.jpg",
		},
		{
			name:     "cdn wins and leading slash trimmed",
			bs:       &bucketService{buckets: testBuckets(bucket{name: "farm-images"}, bucket{name: "farm-docs", cdnDomain: "cdn.example.com"})},
			category: BucketCategoryDocument,
			key:      "/pages/events/pdfs/waiver.pdf",
			want:     "https://cdn.example.com/pages/events/pdfs/waiver.pdf",
		},
		{
			name:     "emulator media endpoint",
			bs:       &bucketService{buckets: testBuckets(bucket{name: "farm-images"}, bucket{}), emulatorBase: "http://fake-gcs:4443/"},
			category: BucketCategoryImage,
			key:      "pages/home/images/a.png",
			want:     "http://fake-gcs:4443/storage/v1/b/farm-images/o/pages%2Fhome%2Fimages%2Fa.png?alt=media",
		},
		{
			name:     "unknown category echoes key",
			bs:       &bucketService{buckets: testBuckets(bucket{name: "farm-images"}, bucket{})},
			category: BucketCategoryDocument,
			key:      "x.pdf",
			want:     "x.pdf",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.bs.GetPublicURL(tc.category, tc.key); got != tc.want {
				t.Fatalf("GetPublicURL: want=%q got=%q", tc.want, got)
			}
		})
	}
}

func TestKeyFromURLRoundTrips(t *testing.T) {
	images := bucket{name: "farm-images"}
	cases := []struct {
		name string
		bs   *bucketService
	}{
		{"gcs default", &bucketService{buckets: testBuckets(images, bucket{})}},
		{"cdn", &bucketService{buckets: testBuckets(bucket{name: "farm-images", cdnDomain: "img.example.com"}, bucket{})}},
		{"public base", &bucketService{buckets: testBuckets(images, bucket{}), publicBaseURL: "http://localhost:4443"}},
		{"emulator", &bucketService{buckets: testBuckets(images, bucket{}), emulatorBase: "http://fake-gcs:4443"}},
	}
	key := "pages/horse-lessons/images/1700000000000-ab12cd34-arena.png"
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			u := tc.bs.GetPublicURL(BucketCategoryImage, key)
			got, ok := tc.bs.KeyFromURL(BucketCategoryImage, u)
			if !ok || got != key {
				t.Fatalf("KeyFromURL(%q): want=%q got=%q ok=%v", u, key, got, ok)
			}
		})
	}
}

func TestKeyFromURLAcceptsGSURI(t *testing.T) {
	bs := &bucketService{buckets: testBuckets(bucket{name: "farm-images"}, bucket{})}
	got, ok := bs.KeyFromURL(BucketCategoryImage, "gs://farm-images/pages/home/images/a.png")
	if !ok || got != "pages/home/images/a.png" {
		t.Fatalf("KeyFromURL: got=%q ok=%v", got, ok)
	}
}

func TestKeyFromURLRejectsForeignURLs(t *testing.T) {
	bs := &bucketService{buckets: testBuckets(bucket{name: "farm-images"}, bucket{name: "farm-docs"})}
	for _, u := range []string{
		"",
		"https://storage.googleapis.com/other-bucket/x.png",
		"https://storage.googleapis.com/farm-docs/x.pdf",
		"https://example.com/x.png",
		"https://storage.googleapis.com/farm-images/",
	} {
		if key, ok := bs.KeyFromURL(BucketCategoryImage, u); ok {
			t.Fatalf("KeyFromURL(%q): expected rejection, got %q", u, key)
		}
	}
}
