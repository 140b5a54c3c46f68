package db

import _ "embed"

//go:embed schema.sql
var Schema string

type Integrity string

const (
	INTEGRITY_OK     Integrity = "ok"
	INTEGRITY_BROKEN Integrity = "broken"
)
