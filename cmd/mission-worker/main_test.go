package main

import (
	"context"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appconfig "github.com/wolfman30/leadpilot-crm/internal/config"
	"github.com/wolfman30/leadpilot-crm/internal/leads"
	"github.com/wolfman30/leadpilot-crm/pkg/logging"
)

func TestBuildDispatcherSendsFollowups(t *testing.T) {
	now := time.Date(2024, 6, 10, 9, 0, 0, 0, time.UTC)
	repo := leads.NewInMemoryRepository()
	repo.SetClock(func() time.Time { return now.Add(-24 * time.Hour) })
	_, err := repo.Create(context.Background(), &leads.CreateLeadRequest{
		UserID: "u1", Name: "Ana", Email: "ana@example.com", Score: 50,
		NextFollowupAt: leads.NewTimestamp(now.Add(-time.Hour)),
	})
	require.NoError(t, err)

	cfg := &appconfig.Config{AutoFollowupEmails: true, EmailProvider: "stub"}
	d := buildDispatcher(cfg, aws.Config{Region: "us-east-1"}, repo, nil, nil, nil, logging.New("error"))
	d.SetClock(func() time.Time { return now })

	result, err := d.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, result.Generated)
	assert.Equal(t, 1, result.Emailed)

	again, err := d.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, again.Skipped)
	assert.Zero(t, again.Emailed)
}

func TestBuildDispatcherWithoutEmails(t *testing.T) {
	cfg := &appconfig.Config{}
	d := buildDispatcher(cfg, aws.Config{Region: "us-east-1"}, leads.NewInMemoryRepository(), nil, nil, nil, logging.New("error"))

	result, err := d.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Zero(t, result.Generated)
}
