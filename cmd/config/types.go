package config

// RagChatConfig is the on-disk shape of ragchat.{yaml,yml,toml,json}.
type RagChatConfig struct {
	Server ServerSection `yaml:"server,omitempty" toml:"server,omitempty" json:"server,omitempty"`
	Upload UploadSection `yaml:"upload,omitempty" toml:"upload,omitempty" json:"upload,omitempty"`
	Chat   ChatSection   `yaml:"chat,omitempty" toml:"chat,omitempty" json:"chat,omitempty"`
}

// ServerSection describes how to reach the backend.
type ServerSection struct {
	URL string `yaml:"url,omitempty" toml:"url,omitempty" json:"url,omitempty"`
	// Timeout is a Go duration string such as "90s". Empty means no timeout.
	Timeout string `yaml:"timeout,omitempty" toml:"timeout,omitempty" json:"timeout,omitempty"`
}

// UploadSection restricts which files may be selected for upload.
type UploadSection struct {
	AllowedExtensions []string `yaml:"allowed_extensions,omitempty" toml:"allowed_extensions,omitempty" json:"allowed_extensions,omitempty"`
}

// ChatSection tunes how answers are applied to the conversation.
type ChatSection struct {
	// DiscardStaleAnswers drops a reply whose request was issued under a
	// different mode than the one in effect when it arrives.
	DiscardStaleAnswers bool `yaml:"discard_stale_answers,omitempty" toml:"discard_stale_answers,omitempty" json:"discard_stale_answers,omitempty"`
}
