package models

import (
	"time"

	"github.com/mssola/user_agent"
)

// ClientMeta is the coarse metadata captured when a connection is opened.
type ClientMeta struct {
	// Addr is the client's origin address as seen by the HTTP layer.
	Addr string `json:"addr"`
	// UserAgent is the raw client string.
	UserAgent string `json:"userAgent"`
	// Browser, OS and Mobile are parsed from UserAgent.
	Browser string `json:"browser,omitempty"`
	OS      string `json:"os,omitempty"`
	Mobile  bool   `json:"mobile,omitempty"`
	// Lang is the preferred language for notices.
	Lang string `json:"lang,omitempty"`
}

// NewClientMeta parses the client string into coarse fields.
func NewClientMeta(addr, agent, lang string) ClientMeta {
	meta := ClientMeta{Addr: addr, UserAgent: agent, Lang: lang}
	if agent == "" {
		return meta
	}
	ua := user_agent.New(agent)
	name, version := ua.Browser()
	if name != "" {
		meta.Browser = name
		if version != "" {
			meta.Browser += " " + version
		}
	}
	meta.OS = ua.OS()
	meta.Mobile = ua.Mobile()
	return meta
}

// Summary is the short client string written to audit records.
func (m ClientMeta) Summary() string {
	switch {
	case m.Browser != "" && m.OS != "":
		return m.Browser + " / " + m.OS
	case m.Browser != "":
		return m.Browser
	}
	return m.UserAgent
}

// Connection is one live client connection tracked by the registry.
type Connection struct {
	ID        string
	Alive     bool
	CreatedAt time.Time
	Meta      ClientMeta
}

// WaitingEntry is a connection waiting in exactly one queue.
type WaitingEntry struct {
	ConnectionID string
	EnqueuedAt   time.Time
	Meta         ClientMeta
}
