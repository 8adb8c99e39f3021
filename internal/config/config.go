package config

import (
	"github.com/spf13/viper"

	"attendance.service/internal/core/engine"
)

// Runs in EKS with DB and AWS settings injected as pod environment
// variables; local development points everything at docker-compose and
// LocalStack instead.

type Config struct {
	DBHost     string `mapstructure:"DB_HOST"`
	DBPort     string `mapstructure:"DB_PORT"`
	DBUser     string `mapstructure:"DB_USER"`
	DBPassword string `mapstructure:"DB_PASSWORD"`
	DBName     string `mapstructure:"DB_NAME"`
	ServerPort string `mapstructure:"SERVER_PORT"`
	IsLocalDev bool   `mapstructure:"IS_LOCAL_DEV"`

	AWSRegion            string `mapstructure:"AWS_REGION"`
	AWSEndpoint          string `mapstructure:"AWS_ENDPOINT"`
	ReprocessSQSQueueURL string `mapstructure:"REPROCESS_SQS_QUEUE_URL"`
	ReviewSQSQueueURL    string `mapstructure:"REVIEW_SQS_QUEUE_URL"`
	OTLPEndpoint         string `mapstructure:"OTLP_ENDPOINT"`

	LeaveAPIURL       string `mapstructure:"LEAVE_API_URL"`
	ReviewInboxEmail  string `mapstructure:"REVIEW_INBOX_EMAIL"`
	ReviewSenderEmail string `mapstructure:"REVIEW_SENDER_EMAIL"`

	// Attendance engine tuning. The grace values use -1 as "unset" so
	// a genuine 0-minute grace can still be configured; unset values
	// fall through to the shift's own grace and then the default.
	LateInGraceMinutes      int `mapstructure:"LATE_IN_GRACE_MINUTES"`
	EarlyOutGraceMinutes    int `mapstructure:"EARLY_OUT_GRACE_MINUTES"`
	DuplicateInGraceMinutes int `mapstructure:"DUPLICATE_IN_GRACE_MINUTES"`
	ProximityToleranceMins  int `mapstructure:"PROXIMITY_TOLERANCE_MINUTES"`
	AmbiguityThresholdMins  int `mapstructure:"AMBIGUITY_THRESHOLD_MINUTES"`
	OutTimeToleranceMins    int `mapstructure:"OUT_TIME_TOLERANCE_MINUTES"`
	MaxShiftsPerDay         int `mapstructure:"MAX_SHIFTS_PER_DAY"`
}

// LoadConfig reads configuration from file or environment variables.
func LoadConfig() (config Config, err error) {
	viper.SetDefault("DB_HOST", "db")
	viper.SetDefault("DB_PORT", "5432")
	viper.SetDefault("DB_USER", "user")
	viper.SetDefault("DB_PASSWORD", "password")
	viper.SetDefault("DB_NAME", "attendance_db")
	viper.SetDefault("SERVER_PORT", "8080")
	viper.SetDefault("IS_LOCAL_DEV", false)
	viper.SetDefault("AWS_REGION", "us-east-1")
	viper.SetDefault("AWS_ENDPOINT", "http://localstack:4566")
	viper.SetDefault("REPROCESS_SQS_QUEUE_URL", "http://localstack:4566/000000000000/attendance-reprocess-queue")
	viper.SetDefault("REVIEW_SQS_QUEUE_URL", "http://localstack:4566/000000000000/shift-review-queue")
	viper.SetDefault("OTLP_ENDPOINT", "jaeger:4317")
	viper.SetDefault("LEAVE_API_URL", "http://localhost:8081/")
	viper.SetDefault("REVIEW_INBOX_EMAIL", "shift-review@factory.com")
	viper.SetDefault("REVIEW_SENDER_EMAIL", "attendance@factory.com")

	viper.SetDefault("LATE_IN_GRACE_MINUTES", -1)
	viper.SetDefault("EARLY_OUT_GRACE_MINUTES", -1)
	viper.SetDefault("DUPLICATE_IN_GRACE_MINUTES", -1)
	viper.SetDefault("PROXIMITY_TOLERANCE_MINUTES", engine.DefaultProximityTolerance)
	viper.SetDefault("AMBIGUITY_THRESHOLD_MINUTES", engine.DefaultAmbiguityThreshold)
	viper.SetDefault("OUT_TIME_TOLERANCE_MINUTES", engine.DefaultOutTimeTolerance)
	viper.SetDefault("MAX_SHIFTS_PER_DAY", engine.DefaultMaxShiftsPerDay)

	// Read in environment variables that match the keys.
	viper.AutomaticEnv()

	err = viper.Unmarshal(&config)
	return
}

// EngineSettings translates the flat env config into the settings value
// the pipeline carries around.
func (c Config) EngineSettings() engine.Settings {
	s := engine.Settings{
		ProximityToleranceMinutes: c.ProximityToleranceMins,
		AmbiguityThresholdMinutes: c.AmbiguityThresholdMins,
		OutTimeToleranceMinutes:   c.OutTimeToleranceMins,
		MaxShiftsPerDay:           c.MaxShiftsPerDay,
	}
	if c.LateInGraceMinutes >= 0 {
		v := c.LateInGraceMinutes
		s.LateInGraceMinutes = &v
	}
	if c.EarlyOutGraceMinutes >= 0 {
		v := c.EarlyOutGraceMinutes
		s.EarlyOutGraceMinutes = &v
	}
	if c.DuplicateInGraceMinutes >= 0 {
		v := c.DuplicateInGraceMinutes
		s.DuplicateInGraceMinutes = &v
	}
	return s.Normalized()
}
