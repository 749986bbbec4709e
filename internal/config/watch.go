package config

import (
	"log"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// Watch re-reads the config file at path whenever it changes and invokes
// onChange with the freshly loaded configuration. It is used to flip
// runtime-tunable settings, most importantly pipeline.auto_recovery,
// without restarting the process. Watch returns immediately; callbacks
// fire on viper's watcher goroutine.
func Watch(path string, onChange func(*Config)) error {
	v := viper.New()
	setDefaults(v)
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return err
	}

	v.OnConfigChange(func(e fsnotify.Event) {
		cfg := &Config{}
		if err := v.Unmarshal(cfg); err != nil {
			log.Printf("[config] ignoring bad config change %s: %v", e.Name, err)
			return
		}
		log.Printf("[config] reloaded %s", e.Name)
		onChange(cfg)
	})
	v.WatchConfig()
	return nil
}
