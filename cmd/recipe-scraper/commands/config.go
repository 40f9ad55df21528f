package commands

import (
	"errors"
	"recipe-scraper/internal/components/telemetry"
	"recipe-scraper/internal/scrapers/eda"
	"time"
)

type Config struct {
	DbUrl   string `json:"db_url"`
	LogPath string `json:"log_path"`

	BaseUrl               string  `json:"base_url"`
	TargetLinks           int     `json:"target_links"`
	RequestTimeoutSeconds int     `json:"request_timeout_seconds"`
	RequestsPerSecond     float64 `json:"requests_per_second"`
	RespectRobotsTxt      bool    `json:"respect_robots_txt"`
	CloudflareBypass      bool    `json:"cloudflare_bypass"`

	ChartPath           string  `json:"chart_path"`
	SimilarityThreshold float64 `json:"similarity_threshold"`

	Otlp telemetry.OtlpConfig `json:"otlp"`
}

func (c *Config) SetDefaults() {
	if c.BaseUrl == "" {
		c.BaseUrl = "https://eda.ru"
	}
	if c.TargetLinks == 0 {
		c.TargetLinks = eda.DefaultTargetLinks
	}
	if c.RequestTimeoutSeconds == 0 {
		c.RequestTimeoutSeconds = 10
	}
	if c.ChartPath == "" {
		c.ChartPath = "chart.png"
	}
	if c.SimilarityThreshold == 0 {
		c.SimilarityThreshold = 0.92
	}
}

func (c *Config) Validate() error {
	var errlist []error
	if c.DbUrl == "" {
		errlist = append(errlist, errors.New("db_url is required"))
	}
	if c.LogPath == "" {
		errlist = append(errlist, errors.New("log_path is required"))
	}
	if c.TargetLinks < 0 {
		errlist = append(errlist, errors.New("target_links must not be negative"))
	}
	if c.RequestTimeoutSeconds < 0 {
		errlist = append(errlist, errors.New("request_timeout_seconds must not be negative"))
	}
	if c.RequestsPerSecond < 0 {
		errlist = append(errlist, errors.New("requests_per_second must not be negative"))
	}
	if c.SimilarityThreshold < 0 || c.SimilarityThreshold > 1 {
		errlist = append(errlist, errors.New("similarity_threshold must be between 0 and 1"))
	}
	return errors.Join(errlist...)
}

func (c Config) ClientOptions() eda.ClientOptions {
	return eda.ClientOptions{
		BaseUrl:           c.BaseUrl,
		Timeout:           time.Duration(c.RequestTimeoutSeconds) * time.Second,
		Retry:             eda.DefaultRetryPolicy,
		RequestsPerSecond: c.RequestsPerSecond,
		RespectRobotsTxt:  c.RespectRobotsTxt,
		CloudflareBypass:  c.CloudflareBypass,
	}
}
