// Copyright 2025 Zintix Labs
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package main

import (
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"github.com/zintix-labs/backoffice/errs"
	"github.com/zintix-labs/backoffice/server/netsvr"
)

const envPrefix = "BACKOFFICE"

// config 是 viper 合併後（flag > env > 檔案 > 預設）的設定。
type config struct {
	Addr           string
	BackendURL     string
	BackendTimeout time.Duration

	SessionStore string // memory | redis
	SessionTTL   time.Duration
	CookieSecure bool

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	LogMode string
	LogFile string

	ZstdLevel       string
	DisableCompress bool

	NavFile  string
	ExportTZ string
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("addr", netsvr.DefaultAddr)
	v.SetDefault("backend.timeout", 15*time.Second)
	v.SetDefault("session.store", "memory")
	v.SetDefault("session.ttl", 12*time.Hour)
	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("log.mode", "dev")
	v.SetDefault("export.timezone", "UTC")
}

// newViper layers an optional YAML file, BACKOFFICE_* env vars and the given flags.
func newViper(cfgFile string, flags *pflag.FlagSet) (*viper.Viper, error) {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	if flags != nil {
		if err := v.BindPFlags(flags); err != nil {
			return nil, errs.Wrap(err, "bind flags")
		}
	}
	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, errs.Wrap(err, "read config "+cfgFile)
		}
	}
	return v, nil
}

func loadConfig(v *viper.Viper) (config, error) {
	c := config{
		Addr:           v.GetString("addr"),
		BackendURL:     strings.TrimSpace(v.GetString("backend.base_url")),
		BackendTimeout: v.GetDuration("backend.timeout"),
		SessionStore:   strings.ToLower(strings.TrimSpace(v.GetString("session.store"))),
		SessionTTL:     v.GetDuration("session.ttl"),
		CookieSecure:   v.GetBool("session.cookie_secure"),
		RedisAddr:      v.GetString("redis.addr"),
		RedisPassword:  v.GetString("redis.password"),
		RedisDB:        v.GetInt("redis.db"),
		LogMode:        v.GetString("log.mode"),
		LogFile:        v.GetString("log.file"),
		ZstdLevel:      v.GetString("compress.zstd_level"),
		NavFile:        v.GetString("nav.file"),
		ExportTZ:       v.GetString("export.timezone"),
	}
	c.DisableCompress = v.GetBool("compress.disable")
	if c.BackendURL == "" {
		return c, errs.NewWarn("backend.base_url is required")
	}
	switch c.SessionStore {
	case "memory", "redis":
	default:
		return c, errs.NewWithExtra(errs.Warn, "session.store must be memory or redis", c.SessionStore)
	}
	if c.SessionTTL <= 0 {
		return c, errs.NewWarn("session.ttl must be positive")
	}
	if _, err := time.LoadLocation(c.ExportTZ); err != nil {
		return c, errs.WrapAs(errs.Warn, err, "export.timezone")
	}
	return c, nil
}

func (c config) location() *time.Location {
	loc, err := time.LoadLocation(c.ExportTZ)
	if err != nil {
		return time.UTC
	}
	return loc
}
