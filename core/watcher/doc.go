// Package watcher turns filesystem notifications for one file into a plain
// callback.
//
// The guard partition file is rewritten by the host out-of-band and may be
// replaced rather than modified in place, so the watch is placed on the parent
// directory (the same approach viper uses for WatchConfig) and events are
// filtered by name. Only Write and Create events are delivered; the receiver
// is expected to debounce since one logical update usually arrives as several
// events.
package watcher
