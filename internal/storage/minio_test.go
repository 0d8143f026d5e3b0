package storage

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"propertyapi/internal/config"
)

func TestPublicBaseURL(t *testing.T) {
	tests := []struct {
		name string
		cfg  config.MinIOConfig
		want string
	}{
		{
			name: "endpoint without ssl",
			cfg:  config.MinIOConfig{Endpoint: "minio:9000", Bucket: "properties"},
			want: "http://minio:9000/properties",
		},
		{
			name: "endpoint with ssl",
			cfg:  config.MinIOConfig{Endpoint: "s3.example.com", Bucket: "b", UseSSL: true},
			want: "https://s3.example.com/b",
		},
		{
			name: "public url override",
			cfg:  config.MinIOConfig{Endpoint: "minio:9000", Bucket: "b", PublicURL: "https://cdn.example.com/"},
			want: "https://cdn.example.com/b",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, PublicBaseURL(tt.cfg))
		})
	}
}

func TestMinIO_KeyFromURL(t *testing.T) {
	m := &minioStorage{bucket: "b", baseURL: "http://minio:9000/b"}

	u := m.URL("properties/1-abc-photo.jpg")
	assert.Equal(t, "http://minio:9000/b/properties/1-abc-photo.jpg", u)

	key, ok := m.KeyFromURL(u)
	assert.True(t, ok)
	assert.Equal(t, "properties/1-abc-photo.jpg", key)

	key, ok = m.KeyFromURL(u + "?X-Amz-Expires=60")
	assert.True(t, ok)
	assert.Equal(t, "properties/1-abc-photo.jpg", key)

	_, ok = m.KeyFromURL("http://minio:9000/other/properties/1-abc-photo.jpg")
	assert.False(t, ok)
}
