package mcpserver

// Tool descriptions with interpretation guidance for LLMs.

func describeSummary() string {
	return `Summarizes a single Istanbul/nyc coverage summary (coverage-summary.json).

USE WHEN:
- No base branch coverage exists yet
- Checking which files of a build are poorly covered
- Getting the aggregate lines/statements/branches/functions percentages

INTERPRETING RESULTS:
- Each file shows one combined percentage: covered units over total units across all four categories
- 🔴 below 70%, 🟠 70% to below 80%, 🟢 80% and above
- A file with nothing countable is reported as 100%
- Paths are shown relative to repository_root

METRICS RETURNED:
- Aggregate table: one row per category from the summary's "total" entry
- Files table: every file in summary order
- Stats: file count, mean, median, min and max of the per-file percentages`
}

func describeCompare() string {
	return `Compares a coverage summary against a baseline (usually the base branch) and classifies every file.

USE WHEN:
- Reviewing a pull request for coverage regressions
- Finding new files that shipped without tests
- Producing the body of a "## Coverage report" pull request comment

INTERPRETING RESULTS:
- Regressions: files whose combined percentage dropped by at least 0.1 after rounding
- New files: files absent from the baseline, change shown as "new"
- Components: every other file, including ones whose coverage rose or stayed flat
- Files deleted since the baseline are not reported
- Aggregate change is current minus baseline percentage per category, e.g. +10%, 0%, -5%
- If the baseline file does not exist, the result falls back to the single summary with a "base branch coverage report not found." notice

METRICS RETURNED:
- Aggregate table with a change column
- Regressions, New files and Components tables in summary order
- Per-file rows with percent, baseline percent and delta (json/toon formats)`
}
