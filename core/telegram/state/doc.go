// Package state keeps per-chat sessions for Telegram bots.
// A session is a flat string map owned by whatever dialogue drives the chat;
// the package itself is domain-agnostic. Two stores are provided: an in-process
// table and a PostgreSQL table.
package state
