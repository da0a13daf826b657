package object_test

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"resumeai-backend/internal/shared/storage/object"
	localstore "resumeai-backend/internal/shared/storage/object/local"
)

func TestReadAllLimit(t *testing.T) {
	ctx := context.Background()
	store := localstore.New(t.TempDir())
	key, _, _, err := store.Save(ctx, "cv.png", strings.NewReader("0123456789"))
	require.NoError(t, err)

	tests := []struct {
		name    string
		limit   int64
		wantErr error
	}{
		{name: "no limit", limit: 0},
		{name: "exact fit", limit: 10},
		{name: "over limit", limit: 9, wantErr: object.ErrTooLarge},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := object.ReadAll(ctx, store, key, tt.limit)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, data)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "0123456789", string(data))
		})
	}
}

func TestReadAllMissingObject(t *testing.T) {
	store := localstore.New(t.TempDir())
	_, err := object.ReadAll(context.Background(), store, "nope/cv.png", 0)
	assert.ErrorIs(t, err, object.ErrNotFound)
}
