package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// config is resolved from flags, then REST_* environment variables, then the
// optional config file. Variables in the env file never override the
// environment.
type config struct {
	URL         string
	Method      string
	Data        string
	ContentType string
	Headers     []string
	Follow      []string
	Timeout     time.Duration
	Retries     int
	Location    bool
	Target      string
	Verbose     bool
}

var errUsage = errors.New("usage: rest [flags] <url>")

func loadConfig(args []string, stderr io.Writer) (config, error) {
	fs := pflag.NewFlagSet("rest", pflag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringP("method", "X", "", "request method, GET by default or POST when data is given")
	fs.StringP("data", "d", "", "request entity, decoded with the converter of its content type")
	fs.String("content-type", "application/json", "media type of the request entity")
	fs.StringArrayP("header", "H", nil, `request header as "Name: value", repeatable`)
	fs.StringArray("follow", nil, "relationship to follow from the response, repeatable")
	fs.Duration("timeout", 0, "overall time limit, zero disables it")
	fs.Int("retries", 0, "retries of failed requests")
	fs.BoolP("location", "L", false, "follow redirects")
	fs.String("target", "", "target id tagging request metrics")
	fs.BoolP("verbose", "v", false, "print response headers and debug logs")
	envFile := fs.String("env-file", ".env", "dotenv file loaded when present")
	configFile := fs.String("config", "", "config file, any format viper reads")

	if err := fs.Parse(args); err != nil {
		return config{}, err
	}
	if fs.NArg() != 1 {
		return config{}, errUsage
	}

	if _, err := os.Stat(*envFile); err == nil {
		if err := godotenv.Load(*envFile); err != nil {
			return config{}, fmt.Errorf("loading %s: %w", *envFile, err)
		}
	}

	v := viper.New()
	v.SetEnvPrefix("REST")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	if err := v.BindPFlags(fs); err != nil {
		return config{}, err
	}
	if *configFile != "" {
		v.SetConfigFile(*configFile)
		if err := v.ReadInConfig(); err != nil {
			return config{}, fmt.Errorf("reading %s: %w", *configFile, err)
		}
	}

	// Header values may contain commas, so they are taken from flags as is.
	headers, _ := fs.GetStringArray("header")

	return config{
		URL:         fs.Arg(0),
		Method:      strings.ToUpper(v.GetString("method")),
		Data:        v.GetString("data"),
		ContentType: v.GetString("content-type"),
		Headers:     headers,
		Follow:      v.GetStringSlice("follow"),
		Timeout:     v.GetDuration("timeout"),
		Retries:     v.GetInt("retries"),
		Location:    v.GetBool("location"),
		Target:      v.GetString("target"),
		Verbose:     v.GetBool("verbose"),
	}, nil
}
