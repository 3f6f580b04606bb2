//go:build integration

package settings_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/suite"

	"custodian/internal/lifecycle/models"
	"custodian/internal/lifecycle/settings"
	"custodian/pkg/testutil/containers"
)

type RedisStoreSuite struct {
	suite.Suite
	redis *containers.RedisContainer
	store *settings.RedisStore
}

func TestRedisStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(RedisStoreSuite))
}

func (s *RedisStoreSuite) SetupSuite() {
	s.redis = containers.GetManager().GetRedis(s.T())
	s.store = settings.NewRedisStore(s.redis.Client, "custodian:test:mode")
}

func (s *RedisStoreSuite) SetupTest() {
	s.Require().NoError(s.redis.Client.FlushDB(context.Background()).Err())
}

func (s *RedisStoreSuite) TestUnsetKeyReportsNotFound() {
	_, ok, err := s.store.Get(context.Background())
	s.Require().NoError(err)
	s.False(ok)
}

func (s *RedisStoreSuite) TestModeSurvivesNewService() {
	ctx := context.Background()
	first := settings.New(s.store, nil)
	_, err := first.SetMode(ctx, "automated", "ops")
	s.Require().NoError(err)

	second := settings.New(settings.NewRedisStore(s.redis.Client, "custodian:test:mode"), nil)
	s.Equal(models.ModeAutomated, second.Mode(ctx))
}
