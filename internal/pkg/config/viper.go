package config

import (
	"bytes"
	"errors"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

var errConfigTypeRequired = errors.New("config: type is required")

// Viper is the viper backed Config.
type Viper struct {
	v *viper.Viper

	mu        sync.RWMutex
	listeners []func()
}

// NewViper reads the file at pathFile and watches it for changes.
func NewViper(pathFile string) (*Viper, error) {
	v := viper.New()

	ext := filepath.Ext(pathFile)
	v.AddConfigPath(filepath.Dir(pathFile))
	v.SetConfigName(strings.TrimSuffix(filepath.Base(pathFile), ext))
	if ext != "" {
		v.SetConfigType(strings.TrimPrefix(ext, "."))
	}

	if err := v.ReadInConfig(); err != nil {
		return nil, err
	}

	vc := &Viper{v: v}

	v.OnConfigChange(func(e fsnotify.Event) {
		slog.Info("config reloaded", "path", pathFile, "op", e.Op.String())
		vc.notify()
	})
	v.WatchConfig()

	return vc, nil
}

// NewViperFromBytes reads configuration of the given type ("yaml", "json")
// from memory. It never watches for changes.
func NewViperFromBytes(configType string, data []byte) (*Viper, error) {
	if strings.TrimSpace(configType) == "" {
		return nil, errConfigTypeRequired
	}

	v := viper.New()
	v.SetConfigType(configType)
	if err := v.ReadConfig(bytes.NewReader(data)); err != nil {
		return nil, err
	}

	return &Viper{v: v}, nil
}

func (vc *Viper) GetBool(key string) bool            { return vc.v.GetBool(key) }
func (vc *Viper) GetString(key string) string        { return vc.v.GetString(key) }
func (vc *Viper) GetInt(key string) int              { return vc.v.GetInt(key) }
func (vc *Viper) GetInt32(key string) int32          { return vc.v.GetInt32(key) }
func (vc *Viper) GetInt64(key string) int64          { return vc.v.GetInt64(key) }
func (vc *Viper) GetFloat64(key string) float64      { return vc.v.GetFloat64(key) }
func (vc *Viper) GetSecond(key string) time.Duration { return vc.unit(key, time.Second) }
func (vc *Viper) GetMinute(key string) time.Duration { return vc.unit(key, time.Minute) }
func (vc *Viper) GetHour(key string) time.Duration   { return vc.unit(key, time.Hour) }
func (vc *Viper) GetDay(key string) time.Duration    { return vc.unit(key, 24*time.Hour) }

func (vc *Viper) unit(key string, d time.Duration) time.Duration {
	return time.Duration(vc.v.GetInt64(key)) * d
}

func (vc *Viper) GetArray(key string) []string {
	var raw []string
	switch val := vc.v.Get(key).(type) {
	case []any:
		for _, item := range val {
			if s, ok := item.(string); ok {
				raw = append(raw, s)
			}
		}
	case []string:
		raw = val
	default:
		raw = strings.Split(vc.v.GetString(key), ",")
	}

	out := make([]string, 0, len(raw))
	for _, s := range raw {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func (vc *Viper) OnChange(fn func()) {
	vc.mu.Lock()
	vc.listeners = append(vc.listeners, fn)
	vc.mu.Unlock()
}

func (vc *Viper) notify() {
	vc.mu.RLock()
	listeners := append([]func(){}, vc.listeners...)
	vc.mu.RUnlock()

	for _, fn := range listeners {
		fn()
	}
}

// Close is a no-op; the file watcher lives for the process lifetime.
func (vc *Viper) Close() error {
	return nil
}
