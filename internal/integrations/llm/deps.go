package llm

import (
	"accountbot/internal/config"
	"accountbot/internal/httpx"
)

type Config = config.Config

var externalHTTPClient = httpx.ExternalHTTPClient()
