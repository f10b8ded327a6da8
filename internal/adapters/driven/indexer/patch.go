package indexer

import (
	"bytes"
	"os"

	"github.com/gitseek/gitseek-cli/internal/core/domain"
	"github.com/gitseek/gitseek-cli/internal/logger"
)

// The engine emits a query module that resolves its payload from a
// hard-coded sibling file. The module has to read the payload location
// from its first argument instead, so the client can place the payload
// wherever its cache lives. This is a textual patch against the
// engine's current output and is version-coupled to it: when the
// signature is absent the module is left untouched and a warning is
// logged, since newer engine releases may accept the location natively.
var (
	payloadSignature   = []byte(`openPayload("` + domain.PayloadName + `")`)
	payloadReplacement = []byte(`openPayload(arguments[0])`)
)

// PatchQueryModule rewrites the module's payload reference in place.
// A missing signature is not an error.
func PatchQueryModule(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if !bytes.Contains(data, payloadSignature) {
		logger.Warn("Query module signature not found in %s, skipping patch", path)
		return nil
	}

	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	patched := bytes.Replace(data, payloadSignature, payloadReplacement, 1)
	return os.WriteFile(path, patched, info.Mode().Perm())
}
