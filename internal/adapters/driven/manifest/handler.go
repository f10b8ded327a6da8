package manifest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"strconv"
	"strings"

	"github.com/gitseek/gitseek-cli/internal/core/domain"
	"github.com/gitseek/gitseek-cli/internal/core/ports/driven"
)

var _ driven.QueryHandler = (*ModuleHandler)(nil)

// ModuleHandler runs queries through a branch's query module binary.
// The module is invoked per query as
//
//	<module> <payloadPath> <keyword> <limit>
//
// and writes a JSON array of hits to stdout. Each invocation is
// independent, so a handler is safe for concurrent use.
type ModuleHandler struct {
	modulePath  string
	payloadPath string
}

// NewModuleHandler wraps a downloaded query module and its payload.
func NewModuleHandler(modulePath, payloadPath string) *ModuleHandler {
	return &ModuleHandler{modulePath: modulePath, payloadPath: payloadPath}
}

// Search executes the module for a keyword.
func (h *ModuleHandler) Search(ctx context.Context, keyword string, limit int) ([]driven.IndexHit, error) {
	cmd := exec.CommandContext(ctx, h.modulePath, h.payloadPath, keyword, strconv.Itoa(limit))

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return nil, domain.CancelledOr(ctx.Err())
		}
		msg := strings.TrimSpace(stderr.String())
		if msg != "" {
			return nil, fmt.Errorf("query module: %s: %w", msg, err)
		}
		return nil, fmt.Errorf("query module: %w", err)
	}

	var hits []driven.IndexHit
	if err := json.Unmarshal(stdout.Bytes(), &hits); err != nil {
		return nil, fmt.Errorf("decode query module output: %w", err)
	}
	return hits, nil
}
