// HTML report generation for optimization results
package optimizer

import (
	"bytes"
	"encoding/json"
	"fmt"
	"html/template"
	"math"
	"os"
	"sort"
	"time"
)

// ============================================================================
// REPORT GENERATOR
// ============================================================================

// ReportGenerator renders an optimization result as a standalone HTML page
type ReportGenerator struct {
	result *Result
	space  []Parameter
}

// NewReportGenerator creates a report generator for an optimization result
func NewReportGenerator(result *Result, params []Parameter) (*ReportGenerator, error) {
	if result == nil {
		return nil, fmt.Errorf("result is required")
	}
	return &ReportGenerator{result: result, space: params}, nil
}

// GenerateHTML generates a complete HTML report
func (r *ReportGenerator) GenerateHTML() (string, error) {
	tmpl, err := template.New("report").Funcs(template.FuncMap{
		"formatFloat":   formatFloat,
		"formatPercent": formatPercent,
		"formatTime":    formatTime,
		"formatScore":   formatScore,
		"add":           func(a, b int) int { return a + b },
		"formatParams": func(params ParameterSet) string {
			names := make([]string, 0, len(params))
			for k := range params {
				names = append(names, k)
			}
			sort.Strings(names)
			result := ""
			for _, k := range names {
				if result != "" {
					result += ", "
				}
				result += fmt.Sprintf("%s=%v", k, params[k])
			}
			return result
		},
	}).Parse(reportTemplate)
	if err != nil {
		return "", fmt.Errorf("failed to parse template: %w", err)
	}

	data := r.prepareTemplateData()

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to execute template: %w", err)
	}

	return buf.String(), nil
}

// SaveToFile saves the HTML report to a file
func (r *ReportGenerator) SaveToFile(filepath string) error {
	html, err := r.GenerateHTML()
	if err != nil {
		return err
	}

	return os.WriteFile(filepath, []byte(html), 0644)
}

// prepareTemplateData prepares all data needed for the HTML template
func (r *ReportGenerator) prepareTemplateData() map[string]interface{} {
	succeeded := len(r.result.AllTrials) - r.result.FailedTrials()

	var valScore, testScore float64
	if r.result.ValidationScore != nil {
		valScore = *r.result.ValidationScore
	}
	if r.result.TestScore != nil {
		testScore = *r.result.TestScore
	}

	return map[string]interface{}{
		"Title":       "Optimization Report",
		"GeneratedAt": time.Now(),
		"Result":      r.result,
		"Space":       r.space,

		"TotalTrials":     len(r.result.AllTrials),
		"SucceededTrials": succeeded,
		"FailedTrials":    r.result.FailedTrials(),

		"ConvergenceData": r.prepareConvergenceData(),
		"TopTrials":       r.topTrials(10),

		"HasValidation":      r.result.ValidationScore != nil,
		"HasTest":            r.result.TestScore != nil,
		"ValidationScore":    valScore,
		"TestScore":          testScore,
		"HasWalkForward":     len(r.result.WalkForwardResults) > 0,
		"HasCrossValidation": len(r.result.CrossValidationResults) > 0,
	}
}

// ============================================================================
// CHART DATA PREPARATION
// ============================================================================

// prepareConvergenceData prepares the best-so-far curve for Chart.js.
// Returned as template.JS so the object literal is embedded verbatim.
func (r *ReportGenerator) prepareConvergenceData() template.JS {
	if len(r.result.ConvergenceHistory) == 0 {
		return "{labels: [], datasets: []}"
	}

	labels := make([]int, len(r.result.ConvergenceHistory))
	values := make([]interface{}, len(r.result.ConvergenceHistory))
	for i, v := range r.result.ConvergenceHistory {
		labels[i] = i + 1
		// non-finite scores (all trials failed so far) render as gaps
		if math.IsNaN(v) || math.IsInf(v, 0) {
			values[i] = nil
		} else {
			values[i] = v
		}
	}

	labelsJSON, _ := json.Marshal(labels)
	valuesJSON, _ := json.Marshal(values)

	return template.JS(fmt.Sprintf(`{
		labels: %s,
		datasets: [{
			label: 'Best Score',
			data: %s,
			borderColor: 'rgb(75, 192, 192)',
			backgroundColor: 'rgba(75, 192, 192, 0.1)',
			tension: 0.1,
			fill: true,
			stepped: true
		}]
	}`, labelsJSON, valuesJSON))
}

// topTrials returns the n best successful trials by score
func (r *ReportGenerator) topTrials(n int) []*Trial {
	var ok []*Trial
	for _, t := range r.result.AllTrials {
		if !t.Failed() {
			ok = append(ok, t)
		}
	}
	sort.SliceStable(ok, func(i, j int) bool {
		return ok[i].SelectionScore() > ok[j].SelectionScore()
	})
	if n > len(ok) {
		n = len(ok)
	}
	return ok[:n]
}

// ============================================================================
// TEMPLATE HELPER FUNCTIONS
// ============================================================================

func formatFloat(f float64) string {
	return fmt.Sprintf("%.2f", f)
}

func formatPercent(f float64) string {
	return fmt.Sprintf("%.2f%%", f*100)
}

func formatTime(t time.Time) string {
	return t.Format("2006-01-02 15:04:05")
}

func formatScore(f float64) string {
	return fmt.Sprintf("%.4f", f)
}

// ============================================================================
// HTML TEMPLATE
// ============================================================================

const reportTemplate = `<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>{{ .Title }}</title>
    <script src="https://cdn.jsdelivr.net/npm/chart.js@4.4.0/dist/chart.umd.min.js"></script>
    <style>
        * {
            margin: 0;
            padding: 0;
            box-sizing: border-box;
        }

        body {
            font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, 'Helvetica Neue', Arial, sans-serif;
            background: #f5f5f5;
            color: #333;
            line-height: 1.6;
        }

        .container {
            max-width: 1400px;
            margin: 0 auto;
            padding: 20px;
        }

        header {
            background: linear-gradient(135deg, #667eea 0%, #764ba2 100%);
            color: white;
            padding: 30px;
            border-radius: 10px;
            margin-bottom: 30px;
            box-shadow: 0 4px 6px rgba(0, 0, 0, 0.1);
        }

        header h1 {
            font-size: 2.5em;
            margin-bottom: 10px;
        }

        header p {
            opacity: 0.9;
            font-size: 1.1em;
        }

        .section {
            background: white;
            padding: 25px;
            margin-bottom: 25px;
            border-radius: 8px;
            box-shadow: 0 2px 4px rgba(0, 0, 0, 0.1);
        }

        .section h2 {
            color: #667eea;
            margin-bottom: 20px;
            padding-bottom: 10px;
            border-bottom: 2px solid #f0f0f0;
        }

        .metrics-grid {
            display: grid;
            grid-template-columns: repeat(auto-fit, minmax(250px, 1fr));
            gap: 20px;
            margin-top: 20px;
        }

        .metric-card {
            background: linear-gradient(135deg, #f5f7fa 0%, #c3cfe2 100%);
            padding: 20px;
            border-radius: 8px;
            border-left: 4px solid #667eea;
        }

        .metric-label {
            font-size: 0.9em;
            color: #666;
            text-transform: uppercase;
            letter-spacing: 0.5px;
            margin-bottom: 8px;
        }

        .metric-value {
            font-size: 1.8em;
            font-weight: bold;
            color: #333;
        }

        .metric-value.positive {
            color: #10b981;
        }

        .metric-value.negative {
            color: #ef4444;
        }

        .chart-container {
            position: relative;
            height: 400px;
            margin: 20px 0;
        }

        table {
            width: 100%;
            border-collapse: collapse;
            margin-top: 20px;
        }

        table th {
            background: #667eea;
            color: white;
            padding: 12px;
            text-align: left;
            font-weight: 600;
        }

        table td {
            padding: 12px;
            border-bottom: 1px solid #f0f0f0;
        }

        table tr:hover {
            background: #f9f9f9;
        }

        .positive {
            color: #10b981;
            font-weight: 600;
        }

        .negative {
            color: #ef4444;
            font-weight: 600;
        }

        .warning-banner {
            background: #fef3c7;
            border-left: 4px solid #f59e0b;
            padding: 15px 20px;
            border-radius: 8px;
            margin-bottom: 25px;
            color: #92400e;
            font-weight: 600;
        }

        footer {
            text-align: center;
            padding: 20px;
            color: #666;
            font-size: 0.9em;
        }

        @media print {
            .chart-container {
                height: 300px;
            }
        }
    </style>
</head>
<body>
    <div class="container">
        <header>
            <h1>{{ .Title }}</h1>
            <p>Method: {{ .Result.Method }} | Generated: {{ formatTime .GeneratedAt }}</p>
        </header>

        {{ if .Result.OverfittingWarning }}
        <div class="warning-banner">
            ⚠️ Possible overfitting: the best parameters degrade significantly on held-out data.
        </div>
        {{ end }}

        <!-- Run Summary -->
        <div class="section">
            <h2>📊 Run Summary</h2>
            <div class="metrics-grid">
                <div class="metric-card">
                    <div class="metric-label">Best Score</div>
                    <div class="metric-value">{{ formatScore .Result.BestScore }}</div>
                </div>
                {{ if .HasValidation }}
                <div class="metric-card">
                    <div class="metric-label">Validation Score</div>
                    <div class="metric-value">{{ formatScore .ValidationScore }}</div>
                </div>
                {{ end }}
                {{ if .HasTest }}
                <div class="metric-card">
                    <div class="metric-label">Test Score</div>
                    <div class="metric-value">{{ formatScore .TestScore }}</div>
                </div>
                {{ end }}
                <div class="metric-card">
                    <div class="metric-label">Total Trials</div>
                    <div class="metric-value">{{ .TotalTrials }}</div>
                </div>
                <div class="metric-card">
                    <div class="metric-label">Failed Trials</div>
                    <div class="metric-value {{ if gt .FailedTrials 0 }}negative{{ end }}">{{ .FailedTrials }}</div>
                </div>
                <div class="metric-card">
                    <div class="metric-label">Duration</div>
                    <div class="metric-value">{{ .Result.ComputationTime }}</div>
                </div>
            </div>
        </div>

        <!-- Best Parameters -->
        <div class="section">
            <h2>🏆 Best Parameters</h2>
            <table>
                <thead>
                    <tr>
                        <th>Parameter</th>
                        <th>Value</th>
                    </tr>
                </thead>
                <tbody>
                    {{ range $name, $value := .Result.BestParameters }}
                    <tr>
                        <td>{{ $name }}</td>
                        <td>{{ $value }}</td>
                    </tr>
                    {{ end }}
                </tbody>
            </table>
        </div>

        <!-- Convergence -->
        <div class="section">
            <h2>📈 Convergence</h2>
            <div class="chart-container">
                <canvas id="convergenceChart"></canvas>
            </div>
        </div>

        <!-- Top Trials -->
        <div class="section">
            <h2>🔬 Top Parameter Sets</h2>
            <table>
                <thead>
                    <tr>
                        <th>Rank</th>
                        <th>Score</th>
                        <th>Parameters</th>
                    </tr>
                </thead>
                <tbody>
                    {{ range $i, $trial := .TopTrials }}
                    <tr>
                        <td>{{ add $i 1 }}</td>
                        <td>{{ formatScore $trial.TrainScore }}</td>
                        <td>{{ formatParams $trial.Parameters }}</td>
                    </tr>
                    {{ end }}
                </tbody>
            </table>
        </div>

        {{ if .HasWalkForward }}
        <!-- Walk-Forward Analysis -->
        <div class="section">
            <h2>🚶 Walk-Forward Analysis</h2>
            <p><strong>Overfitting Score:</strong> {{ formatScore .Result.OverfittingScore }}</p>
            <table>
                <thead>
                    <tr>
                        <th>Period</th>
                        <th>Train Window</th>
                        <th>Test Window</th>
                        <th>Train Score</th>
                        <th>Test Score</th>
                        <th>Degradation</th>
                    </tr>
                </thead>
                <tbody>
                    {{ range .Result.WalkForwardResults }}
                    <tr>
                        <td>{{ .Period }}</td>
                        <td>{{ .TrainStart }}–{{ .TrainEnd }}</td>
                        <td>{{ .TestStart }}–{{ .TestEnd }}</td>
                        <td>{{ formatScore .TrainScore }}</td>
                        <td>{{ formatScore .TestScore }}</td>
                        <td class="{{ if gt .Degradation 0.15 }}negative{{ else }}positive{{ end }}">
                            {{ formatPercent .Degradation }}
                        </td>
                    </tr>
                    {{ end }}
                </tbody>
            </table>
        </div>
        {{ end }}

        {{ if .HasCrossValidation }}
        <!-- Cross-Validation -->
        <div class="section">
            <h2>🧩 Cross-Validation</h2>
            <p><strong>Stability Score:</strong> {{ formatScore .Result.StabilityScore }}</p>
            <table>
                <thead>
                    <tr>
                        <th>Fold</th>
                        <th>Train Score</th>
                        <th>Validation Score</th>
                    </tr>
                </thead>
                <tbody>
                    {{ range .Result.CrossValidationResults }}
                    <tr>
                        <td>{{ .Fold }}</td>
                        <td>{{ formatScore .TrainScore }}</td>
                        <td>{{ formatScore .ValidationScore }}</td>
                    </tr>
                    {{ end }}
                </tbody>
            </table>
        </div>
        {{ end }}

        <!-- Search Space -->
        <div class="section">
            <h2>⚙️ Search Space</h2>
            <table>
                <thead>
                    <tr>
                        <th>Parameter</th>
                        <th>Type</th>
                        <th>Range / Values</th>
                    </tr>
                </thead>
                <tbody>
                    {{ range .Space }}
                    <tr>
                        <td>{{ .Name }}</td>
                        <td>{{ .Type }}</td>
                        <td>{{ if .Values }}{{ .Values }}{{ else }}[{{ formatFloat .Min }}, {{ formatFloat .Max }}]{{ end }}</td>
                    </tr>
                    {{ end }}
                </tbody>
            </table>
        </div>

        <footer>
            <p>Generated with the OptiFunk optimization engine</p>
        </footer>
    </div>

    <script>
        Chart.defaults.font.family = '-apple-system, BlinkMacSystemFont, "Segoe UI", Roboto, "Helvetica Neue", Arial, sans-serif';
        Chart.defaults.color = '#666';

        new Chart(document.getElementById('convergenceChart'), {
            type: 'line',
            data: {{ .ConvergenceData }},
            options: {
                responsive: true,
                maintainAspectRatio: false,
                plugins: {
                    legend: { display: true },
                    title: { display: false }
                },
                scales: {
                    x: {
                        title: { display: true, text: 'Trial' }
                    },
                    y: {
                        beginAtZero: false
                    }
                }
            }
        });
    </script>
</body>
</html>
`
