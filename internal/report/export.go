package report

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/bytedance/sonic"
)

// ReportFile is the exported report's name inside the data directory. Each
// export overwrites the previous one; the report id tells them apart.
const ReportFile = "system_report.json"

// Export writes the report as indented JSON and returns the file path.
func Export(dir string, r Report) (string, error) {
	buf, err := sonic.MarshalIndent(r, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode report: %w", err)
	}
	path := filepath.Join(dir, ReportFile)
	if err := os.WriteFile(path, buf, 0o644); err != nil {
		return "", fmt.Errorf("write report: %w", err)
	}
	return path, nil
}

// LoadLatest reads back the most recently exported report.
func LoadLatest(dir string) (Report, error) {
	buf, err := os.ReadFile(filepath.Join(dir, ReportFile))
	if err != nil {
		return Report{}, err
	}
	var r Report
	if err := sonic.Unmarshal(buf, &r); err != nil {
		return Report{}, fmt.Errorf("decode report: %w", err)
	}
	return r, nil
}
