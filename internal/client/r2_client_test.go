package client

import (
	"context"
	"testing"
)

func TestRemoveArtifact_SkipsForeignURLs(t *testing.T) {
	// s3Client left nil: a delete attempt on a foreign URL would panic.
	c := &R2Client{bucketName: "renders", publicURL: "https://cdn.example.com"}

	for _, url := range []string{
		"simulated://renders/abc.mp4",
		"https://elsewhere.example.com/out.mp4",
		"",
	} {
		if err := c.RemoveArtifact(context.Background(), url); err != nil {
			t.Errorf("RemoveArtifact(%q) = %v, expected skip", url, err)
		}
	}
}

func TestKeyFromURL(t *testing.T) {
	c := &R2Client{bucketName: "renders", publicURL: "https://cdn.example.com"}

	cases := []struct {
		url  string
		key  string
		want bool
	}{
		{"https://cdn.example.com/renders/out.mp4", "renders/out.mp4", true},
		{"https://renders.r2.cloudflarestorage.com/out.mp4", "out.mp4", true},
		{"simulated://renders/out.mp4", "", false},
	}
	for _, tc := range cases {
		key, ok := c.keyFromURL(tc.url)
		if ok != tc.want || key != tc.key {
			t.Errorf("keyFromURL(%q) = %q, %v; expected %q, %v", tc.url, key, ok, tc.key, tc.want)
		}
	}
}
