package internal

import (
	"fmt"
	"time"
)

type Config struct {
	BackendURL    string `env:"BACKEND_URL,required=true"`
	ChannelURL    string `env:"CHANNEL_URL,required=true"`
	ChannelOrigin string `env:"CHANNEL_ORIGIN,required=true"`
	UploadURL     string `env:"UPLOAD_URL,required=true"`
	UploadPreset  string `env:"UPLOAD_PRESET,required=true"`

	HTTPTimeout   time.Duration `env:"HTTP_TIMEOUT,required=true"`
	UploadTimeout time.Duration `env:"UPLOAD_TIMEOUT,required=true"`

	AuthTokenSecret string `env:"AUTH_TOKEN_SECRET,required=true"`
	IDToken         string `env:"ID_TOKEN"`

	CharReplacement string `env:"CHARACTER_REPLACEMENT,required=true"`

	BadgerFilepath string `env:"BADGER_FILEPATH,required=true"`
	LogLevel       string `env:"LOG_LEVEL,required=true"`

	ReportInterval  time.Duration `env:"REPORT_INTERVAL,required=true"`
	RestartInterval time.Duration `env:"RESTART_INTERVAL,required=true"`
	DebugPort       int           `env:"DEBUG_PORT,required=true"`
}

func CharacterRune(str string) (rune, error) {
	r := []rune(str)
	if len(r) != 1 {
		return 0, fmt.Errorf(
			"CHARACTER_REPLACEMENT must be a single character, got %q",
			str,
		)
	}
	return r[0], nil
}
