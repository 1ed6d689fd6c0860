package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"text/tabwriter"

	"github.com/podsight/internal/models"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Login to the podsight server",
	Run: func(cmd *cobra.Command, args []string) {
		username, _ := cmd.Flags().GetString("username")
		password, _ := cmd.Flags().GetString("password")

		token, err := authenticate(username, password)
		if err != nil {
			fmt.Printf("Login failed: %v\n", err)
			return
		}

		viper.Set("token", token)
		viper.WriteConfigAs(os.ExpandEnv("$HOME/.podsight.yaml"))
		fmt.Println("Login successful")
	},
}

var reportsCmd = &cobra.Command{
	Use:   "reports",
	Short: "List generated reports",
	Run: func(cmd *cobra.Command, args []string) {
		reportType, _ := cmd.Flags().GetString("type")

		reports, err := getReports(reportType)
		if err != nil {
			fmt.Printf("Error getting reports: %v\n", err)
			return
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', tabwriter.TabIndent)
		fmt.Fprintln(w, "ID\tTYPE\tPERIOD\tSTATUS\tEPISODES\tTRIGGER\t")
		for _, r := range reports {
			fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%d\t%s\t\n",
				r.ID, r.ReportType, r.DateKey, r.Status, r.EpisodesIncluded, r.GenerationType)
		}
		w.Flush()
	},
}

var generateCmd = &cobra.Command{
	Use:   "generate [daily|weekly|monthly|quarterly]",
	Short: "Trigger manual report generation",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		body := map[string]interface{}{}
		if v, _ := cmd.Flags().GetString("date"); v != "" {
			body["date"] = v
		}
		if v, _ := cmd.Flags().GetString("monday"); v != "" {
			body["monday"] = v
		}
		if v, _ := cmd.Flags().GetString("sunday"); v != "" {
			body["sunday"] = v
		}
		if v, _ := cmd.Flags().GetInt("year"); v != 0 {
			body["year"] = v
		}
		if v, _ := cmd.Flags().GetInt("month"); v != 0 {
			body["month"] = v
		}
		if v, _ := cmd.Flags().GetInt("quarter"); v != 0 {
			body["quarter"] = v
		}

		result, err := triggerGeneration(args[0], body)
		if err != nil {
			fmt.Printf("Generation failed: %v\n", err)
			return
		}
		fmt.Println(result)
	},
}

func init() {
	loginCmd.Flags().String("username", "", "Username")
	loginCmd.Flags().String("password", "", "Password")
	loginCmd.MarkFlagRequired("username")
	loginCmd.MarkFlagRequired("password")

	reportsCmd.Flags().String("type", "", "Filter by report type")

	generateCmd.Flags().String("date", "", "Date for daily reports (YYYY-MM-DD)")
	generateCmd.Flags().String("monday", "", "Week start for weekly reports (YYYY-MM-DD)")
	generateCmd.Flags().String("sunday", "", "Week end for weekly reports (YYYY-MM-DD)")
	generateCmd.Flags().Int("year", 0, "Year for monthly/quarterly reports")
	generateCmd.Flags().Int("month", 0, "Month for monthly reports (1-12)")
	generateCmd.Flags().Int("quarter", 0, "Quarter for quarterly reports (1-4)")
}

func authenticate(username, password string) (string, error) {
	payload, _ := json.Marshal(map[string]string{
		"username": username,
		"password": password,
	})

	resp, err := http.Post(viper.GetString("server")+"/api/v1/auth/login",
		"application/json", bytes.NewBuffer(payload))
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("server returned status %d", resp.StatusCode)
	}

	var result struct {
		Token string `json:"token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", err
	}
	return result.Token, nil
}

func getReports(reportType string) ([]models.Report, error) {
	url := viper.GetString("server") + "/api/v1/reports"
	if reportType != "" {
		url += "?type=" + reportType
	}

	resp, err := doRequest(http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("server returned status %d", resp.StatusCode)
	}

	var reports []models.Report
	if err := json.NewDecoder(resp.Body).Decode(&reports); err != nil {
		return nil, err
	}
	return reports, nil
}

func triggerGeneration(reportType string, body map[string]interface{}) (string, error) {
	payload, _ := json.Marshal(body)
	url := fmt.Sprintf("%s/api/v1/reports/%s/generate", viper.GetString("server"), reportType)

	resp, err := doRequest(http.MethodPost, url, bytes.NewBuffer(payload))
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	data, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return "", fmt.Errorf("server returned status %d: %s", resp.StatusCode, data)
	}
	return string(data), nil
}

func doRequest(method, url string, body io.Reader) (*http.Response, error) {
	req, err := http.NewRequest(method, url, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if token := viper.GetString("token"); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return http.DefaultClient.Do(req)
}
