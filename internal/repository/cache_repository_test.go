package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	appErrors "github.com/noah-isme/edu-booking-api/pkg/errors"
)

func TestCacheRepositoryWithoutClient(t *testing.T) {
	repo := NewCacheRepository(nil, nil)
	var dest []string

	err := repo.Get(context.Background(), "slots:person-1:x", &dest)
	assert.True(t, errors.Is(err, appErrors.ErrCacheMiss))
	assert.NoError(t, repo.Set(context.Background(), "slots:person-1:x", []string{"a"}, time.Minute))
	assert.NoError(t, repo.DeleteByPattern(context.Background(), "slots:person-1:*"))
	assert.Error(t, repo.Ping(context.Background()))
}
