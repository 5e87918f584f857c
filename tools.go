//go:build tools

package chat_sync

import (
	_ "go.uber.org/mock/mockgen"
)
