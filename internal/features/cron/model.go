package cron_feature

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Job is a named maintenance task run on a cron schedule. Run returns the
// number of items it affected.
type Job struct {
	Name        string
	Description string
	Schedule    string
	Run         func(ctx context.Context) (int, error)
}

// JobInfo describes a registered job for listing.
type JobInfo struct {
	Name        string     `json:"name"`
	Description string     `json:"description,omitempty"`
	Schedule    string     `json:"schedule"`
	LastRun     *time.Time `json:"last_run,omitempty"`
	NextRun     *time.Time `json:"next_run,omitempty"`
}

type JobStatus string

const (
	JobStatusRunning JobStatus = "running"
	JobStatusSuccess JobStatus = "success"
	JobStatusFailed  JobStatus = "failed"
)

// CronJobLog represents a single execution of a cron job
type CronJobLog struct {
	ID              primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	JobName         string             `json:"job_name" bson:"job_name"`
	Trigger         string             `json:"trigger" bson:"trigger"` // "schedule" or "manual"
	StartTime       time.Time          `json:"start_time" bson:"start_time"`
	EndTime         *time.Time         `json:"end_time,omitempty" bson:"end_time,omitempty"`
	Status          JobStatus          `json:"status" bson:"status"`
	RecordsAffected int                `json:"records_affected" bson:"records_affected"`
	Error           string             `json:"error,omitempty" bson:"error,omitempty"`
	CreatedAt       time.Time          `json:"created_at" bson:"created_at"`
}
