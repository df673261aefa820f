package replicate

import (
	"os"
	"path/filepath"

	"github.com/zpdzap/replicant/internal/confine"
)

// PayloadName is the harmless note dropped alongside replicas.
const PayloadName = "friendly_note.txt"

const payloadText = "Hello from the harmless demo payload. Stay safe.\n"

// dropPayload writes the note file into targetDir. The payload is cosmetic;
// callers treat any error as a warning, never a failure of the replication
// itself.
func (e *Engine) dropPayload(targetDir string) error {
	dst := filepath.Join(targetDir, PayloadName)
	ok, err := confine.Within(dst, e.mgr.Paths().Root)
	if err != nil {
		return err
	}
	if !ok {
		return &ConfinementError{Path: dst, Root: e.mgr.Paths().Root}
	}
	if err := os.WriteFile(dst, []byte(payloadText), 0o644); err != nil {
		return err
	}
	e.log.Info("payload note written", "path", dst)
	return nil
}
