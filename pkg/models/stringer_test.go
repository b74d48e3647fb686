package models

import (
	"testing"
)

func TestStringerMethods(t *testing.T) {
	tests := []struct {
		name   string
		value  interface{ String() string }
		expect string
	}{
		{"Category_lines", CategoryLines, "lines"},
		{"Category_statements", CategoryStatements, "statements"},
		{"Category_branches", CategoryBranches, "branches"},
		{"Category_functions", CategoryFunctions, "functions"},
		{"Severity_red", SeverityRed, "red"},
		{"Severity_amber", SeverityAmber, "amber"},
		{"Severity_green", SeverityGreen, "green"},
		{"Classification_regression", ClassRegression, "regression"},
		{"Classification_added", ClassAdded, "added"},
		{"Classification_healthy", ClassHealthy, "healthy"},
		{"Align_left", AlignLeft, "left"},
		{"Align_right", AlignRight, "right"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.value.String(); got != tt.expect {
				t.Errorf("String() = %q, want %q", got, tt.expect)
			}
		})
	}
}

func TestSeverityIcon(t *testing.T) {
	tests := []struct {
		severity Severity
		want     string
	}{
		{SeverityRed, "🔴"},
		{SeverityAmber, "🟠"},
		{SeverityGreen, "🟢"},
	}
	for _, tt := range tests {
		if got := tt.severity.Icon(); got != tt.want {
			t.Errorf("%s.Icon() = %q, want %q", tt.severity, got, tt.want)
		}
	}
}
