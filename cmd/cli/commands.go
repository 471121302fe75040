package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/spf13/cobra"
)

var (
	studentQuery string
	studentClass string
	studentRoll  string
	studentPhone string
	studentYear  string
	maxMatches   int
	scope        string
	month        string
	class        string
)

func init() {
	rootCmd.AddCommand(healthCmd)
	rootCmd.AddCommand(metricsCmd)
	rootCmd.AddCommand(batchesCmd)
	rootCmd.AddCommand(createBatchCmd)
	rootCmd.AddCommand(studentsCmd)
	rootCmd.AddCommand(addStudentCmd)
	rootCmd.AddCommand(togglePaidCmd)
	rootCmd.AddCommand(markAllPaidCmd)
	rootCmd.AddCommand(matchesCmd)
	rootCmd.AddCommand(generateCmd)
	rootCmd.AddCommand(pairCmd)
	rootCmd.AddCommand(resultCmd)
	rootCmd.AddCommand(archiveCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(leaderboardCmd)
	rootCmd.AddCommand(notifyLeaderboardCmd)
	rootCmd.AddCommand(reconcileCmd)
	rootCmd.AddCommand(dashboardCmd)

	studentsCmd.Flags().StringVarP(&studentQuery, "query", "q", "", "Filter by name or id")
	addStudentCmd.Flags().StringVar(&studentClass, "class", "", "Class of the student")
	addStudentCmd.Flags().StringVar(&studentRoll, "roll", "", "Roll number")
	addStudentCmd.Flags().StringVar(&studentPhone, "mobile", "", "Mobile number")
	addStudentCmd.Flags().StringVar(&studentYear, "year", "", "Year")
	generateCmd.Flags().IntVar(&maxMatches, "max", 0, "Maximum matches per student (server default when 0)")
	for _, c := range []*cobra.Command{leaderboardCmd, notifyLeaderboardCmd} {
		c.Flags().StringVar(&scope, "scope", "current", "Standings scope: current or history")
		c.Flags().StringVar(&month, "month", "", "Archived matches of one month (YYYY-MM)")
		c.Flags().StringVar(&class, "class", "", "Only students of this class")
	}
}

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Check the health of the server",
	RunE: func(cmd *cobra.Command, args []string) error {
		return performRequest(http.MethodGet, "/health", nil, nil)
	},
}

var metricsCmd = &cobra.Command{
	Use:   "metrics",
	Short: "Get application metrics",
	RunE: func(cmd *cobra.Command, args []string) error {
		return performRequest(http.MethodGet, "/metrics", nil, nil)
	},
}

var batchesCmd = &cobra.Command{
	Use:   "batches",
	Short: "List the known batches",
	RunE: func(cmd *cobra.Command, args []string) error {
		return performRequest(http.MethodGet, "/batches", nil, nil)
	},
}

var createBatchCmd = &cobra.Command{
	Use:   "create-batch NAME",
	Short: "Create a new batch",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return performRequest(http.MethodPost, "/batches", url.Values{"name": {args[0]}}, nil)
	},
}

var studentsCmd = &cobra.Command{
	Use:   "students",
	Short: "List the students of a batch",
	RunE: func(cmd *cobra.Command, args []string) error {
		q := url.Values{}
		if studentQuery != "" {
			q.Set("q", studentQuery)
		}
		return performBatchRequest(http.MethodGet, "/students", q, nil)
	},
}

var addStudentCmd = &cobra.Command{
	Use:   "add-student NAME",
	Short: "Add a student to a batch",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		body := map[string]string{
			"name":   args[0],
			"class":  studentClass,
			"roll":   studentRoll,
			"mobile": studentPhone,
			"year":   studentYear,
		}
		return performBatchRequest(http.MethodPost, "/students", nil, body)
	},
}

var togglePaidCmd = &cobra.Command{
	Use:   "toggle-paid STUDENT_ID",
	Short: "Flip the entry fee status of a student",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return performBatchRequest(http.MethodPost, "/students/"+url.PathEscape(args[0])+"/toggle-paid", nil, nil)
	},
}

var markAllPaidCmd = &cobra.Command{
	Use:   "mark-all-paid",
	Short: "Mark every student of a batch as paid",
	RunE: func(cmd *cobra.Command, args []string) error {
		return performBatchRequest(http.MethodPost, "/students/mark-all-paid", nil, nil)
	},
}

var matchesCmd = &cobra.Command{
	Use:   "matches",
	Short: "List the active matches of a batch",
	RunE: func(cmd *cobra.Command, args []string) error {
		return performBatchRequest(http.MethodGet, "/matches", nil, nil)
	},
}

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate the next round of matches",
	RunE: func(cmd *cobra.Command, args []string) error {
		q := url.Values{}
		if maxMatches > 0 {
			q.Set("max_matches", fmt.Sprint(maxMatches))
		}
		return performBatchRequest(http.MethodPost, "/matches/generate", q, nil)
	},
}

var pairCmd = &cobra.Command{
	Use:   "pair STUDENT1_ID STUDENT2_ID",
	Short: "Create a single match between two students",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		body := map[string]string{"student1_id": args[0], "student2_id": args[1]}
		return performBatchRequest(http.MethodPost, "/matches", nil, body)
	},
}

var resultCmd = &cobra.Command{
	Use:       "result MATCH_ID student1|student2|draw",
	Short:     "Record the result of a match",
	Args:      cobra.ExactArgs(2),
	ValidArgs: []string{"student1", "student2", "draw"},
	RunE: func(cmd *cobra.Command, args []string) error {
		body := map[string]string{"outcome": args[1]}
		return performBatchRequest(http.MethodPost, "/matches/"+url.PathEscape(args[0])+"/result", nil, body)
	},
}

var archiveCmd = &cobra.Command{
	Use:   "archive",
	Short: "Move scored matches to the history",
	RunE: func(cmd *cobra.Command, args []string) error {
		return performBatchRequest(http.MethodPost, "/matches/archive", nil, nil)
	},
}

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List archived matches",
	RunE: func(cmd *cobra.Command, args []string) error {
		return performBatchRequest(http.MethodGet, "/history", nil, nil)
	},
}

func standingsQuery() url.Values {
	q := url.Values{"scope": {scope}}
	if month != "" {
		q.Set("month", month)
	}
	if class != "" {
		q.Set("class", class)
	}
	return q
}

var leaderboardCmd = &cobra.Command{
	Use:   "leaderboard",
	Short: "Show the standings of a batch",
	RunE: func(cmd *cobra.Command, args []string) error {
		return performBatchRequest(http.MethodGet, "/leaderboard", standingsQuery(), nil)
	},
}

var notifyLeaderboardCmd = &cobra.Command{
	Use:   "notify-leaderboard",
	Short: "Post the standings of a batch to Slack",
	RunE: func(cmd *cobra.Command, args []string) error {
		return performBatchRequest(http.MethodPost, "/leaderboard/notify", standingsQuery(), nil)
	},
}

var reconcileCmd = &cobra.Command{
	Use:   "reconcile",
	Short: "Recompute cached student points from the match records",
	RunE: func(cmd *cobra.Command, args []string) error {
		return performBatchRequest(http.MethodPost, "/reconcile", nil, nil)
	},
}

var dashboardCmd = &cobra.Command{
	Use:   "dashboard",
	Short: "Show batch totals and the top students",
	RunE: func(cmd *cobra.Command, args []string) error {
		return performBatchRequest(http.MethodGet, "/dashboard", nil, nil)
	},
}

func performBatchRequest(method, endpoint string, query url.Values, body any) error {
	if batchName == "" {
		return errors.New("--batch is required")
	}
	if query == nil {
		query = url.Values{}
	}
	query.Set("batch", batchName)
	return performRequest(method, endpoint, query, body)
}

func buildURL(endpoint string, query url.Values) string {
	if dryRun {
		if query == nil {
			query = url.Values{}
		}
		query.Set("dry_run", "true")
	}
	u := host + endpoint
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	return u
}

func performRequest(method, endpoint string, query url.Values, body any) error {
	url := buildURL(endpoint, query)
	fmt.Printf("Making %s request to %s\n", method, url)

	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request body: %w", err)
		}
		reader = bytes.NewReader(b)
	}
	req, err := http.NewRequest(method, url, reader)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to make request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	fmt.Printf("Status Code: %d\n", resp.StatusCode)
	fmt.Println("Response Body:")
	fmt.Println(string(respBody))

	if resp.StatusCode >= http.StatusBadRequest {
		return fmt.Errorf("server returned %s", resp.Status)
	}
	return nil
}
