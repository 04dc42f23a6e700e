package verify

import (
	"encoding/json"
	"fmt"
	"os"

	"certverify/pkg/models"
)

// LoadSealVerdict reads an external seal classifier verdict from a JSON file.
// The classifier itself (seal region detection plus the trained image model)
// runs out of process; this system only consumes its verdict contract.
func LoadSealVerdict(path string) (*models.SealVerdict, error) {
	const op = "LoadSealVerdict"

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to read verdict file: %w", op, err)
	}

	var verdict models.SealVerdict
	if err := json.Unmarshal(data, &verdict); err != nil {
		return nil, fmt.Errorf("%s: failed to parse verdict file: %w", op, err)
	}

	if verdict.Status != "Pass" && verdict.Status != "Fail" {
		return nil, fmt.Errorf("%s: unexpected status %q (expected Pass or Fail)", op, verdict.Status)
	}
	if verdict.SealStatus != "Real" && verdict.SealStatus != "Fake" {
		return nil, fmt.Errorf("%s: unexpected seal_status %q (expected Real or Fake)", op, verdict.SealStatus)
	}

	return &verdict, nil
}
