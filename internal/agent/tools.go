package agent

import (
	"encoding/json"

	openai "github.com/sashabaranov/go-openai"

	"github.com/oppdesk/oppdesk/internal/llm"
)

// Tool names exposed to the model.
const (
	toolCopyFiles   = "copy_files"
	toolAddOpp      = "add_opportunity"
	toolUpdateOpp   = "update_opportunity"
	toolQueryOpps   = "query_opportunities"
	toolDrawChart   = "draw_chart"
	defaultQuerySQL = "SELECT * FROM opportunities LIMIT 4"
)

// Tools defines the tool surface offered to the model on every turn.
var Tools = []llm.Tool{
	{
		Type: openai.ToolTypeFunction,
		Function: &openai.FunctionDefinition{
			Name:        toolCopyFiles,
			Description: "Copies files from a source folder to a destination folder. Supports single files, whole folders, or patterns.",
			Parameters: json.RawMessage(`{
				"type": "object",
				"properties": {
					"source_path": {"type": "string", "description": "Path to the source folder or file."},
					"destination_path": {"type": "string", "description": "Path to the destination folder."},
					"file_pattern": {"type": "string", "description": "File name or pattern (e.g., 'file.txt', '*.pdf'). Empty copies a whole folder tree.", "default": "*"}
				},
				"required": ["source_path", "destination_path"]
			}`),
		},
	},
	{
		Type: openai.ToolTypeFunction,
		Function: &openai.FunctionDefinition{
			Name:        toolAddOpp,
			Description: "Add a new sales opportunity with a unique running number. Fails if opp_name already exists.",
			Parameters: json.RawMessage(`{
				"type": "object",
				"properties": {
					"customer_name": {"type": "string", "description": "Client name (e.g., SingTel)"},
					"opp_id": {"type": "string", "description": "Opportunity ID from other system (optional)", "default": ""},
					"opp_name": {"type": "string", "description": "Unique opportunity name"},
					"submission_date": {"type": "string", "description": "Submission date (YYYY-MM-DD, optional)", "default": ""},
					"tender_briefing_date": {"type": "string", "description": "Tender briefing date (YYYY-MM-DD, optional)", "default": ""},
					"review1_date": {"type": "string", "description": "1st review date with offshore team (YYYY-MM-DD, optional)", "default": ""},
					"review2_date": {"type": "string", "description": "2nd review date with offshore team (YYYY-MM-DD, optional)", "default": ""},
					"am_name": {"type": "string", "description": "Account manager name (optional)", "default": ""},
					"offshore": {"type": "string", "description": "Offshore team delivering the project (optional)", "default": ""},
					"bcc_review_date": {"type": "string", "description": "Review date with manager (YYYY-MM-DD, optional)", "default": ""},
					"deal_size": {"type": "string", "description": "Deal size (e.g., 500k)"},
					"stage": {"type": "string", "description": "Sales stage (e.g., Proposal)"},
					"details": {"type": "string", "description": "Additional details or notes"}
				},
				"required": ["customer_name", "opp_name", "deal_size", "stage", "details"]
			}`),
		},
	},
	{
		Type: openai.ToolTypeFunction,
		Function: &openai.FunctionDefinition{
			Name:        toolUpdateOpp,
			Description: "Update an existing sales opportunity identified by opp_id or opp_name, including setting new_opp_id. Provided details are appended to the existing notes.",
			Parameters: json.RawMessage(`{
				"type": "object",
				"properties": {
					"opp_id": {"type": "string", "description": "Opportunity ID to identify the opportunity (optional)", "default": ""},
					"opp_name": {"type": "string", "description": "Opportunity name to identify the opportunity (optional)", "default": ""},
					"new_opp_id": {"type": "string", "description": "New opportunity ID to set (optional)", "default": ""},
					"customer_name": {"type": "string", "description": "Updated client name (optional)", "default": ""},
					"submission_date": {"type": "string", "description": "Updated submission date (YYYY-MM-DD, optional)", "default": ""},
					"tender_briefing_date": {"type": "string", "description": "Updated tender briefing date (YYYY-MM-DD, optional)", "default": ""},
					"review1_date": {"type": "string", "description": "Updated 1st review date (YYYY-MM-DD, optional)", "default": ""},
					"review2_date": {"type": "string", "description": "Updated 2nd review date (YYYY-MM-DD, optional)", "default": ""},
					"am_name": {"type": "string", "description": "Updated account manager name (optional)", "default": ""},
					"offshore": {"type": "string", "description": "Updated offshore team (optional)", "default": ""},
					"bcc_review_date": {"type": "string", "description": "Updated manager review date (YYYY-MM-DD, optional)", "default": ""},
					"deal_size": {"type": "string", "description": "Updated deal size (optional)", "default": ""},
					"stage": {"type": "string", "description": "Updated sales stage (optional)", "default": ""},
					"details": {"type": "string", "description": "Notes to append (optional)", "default": ""}
				},
				"required": []
			}`),
		},
	},
	{
		Type: openai.ToolTypeFunction,
		Function: &openai.FunctionDefinition{
			Name:        toolQueryOpps,
			Description: "Retrieve opportunities using a read-only SQL query over the 'opportunities' table. Default: " + defaultQuerySQL + ".",
			Parameters: json.RawMessage(`{
				"type": "object",
				"properties": {
					"sql_query": {"type": "string", "description": "SQL query to filter opportunities (e.g., SELECT * FROM opportunities WHERE opp_name = 'AI Platform')", "default": "SELECT * FROM opportunities LIMIT 4"}
				},
				"required": []
			}`),
		},
	},
	{
		Type: openai.ToolTypeFunction,
		Function: &openai.FunctionDefinition{
			Name:        toolDrawChart,
			Description: "Draw a chart from inline 'label value' pairs or from the opportunity table (e.g., 'pie chart of opp by stage'). Returns the image file path.",
			Parameters: json.RawMessage(`{
				"type": "object",
				"properties": {
					"request": {"type": "string", "description": "The user's chart request, verbatim."}
				},
				"required": ["request"]
			}`),
		},
	},
}

// copyFilesArgs mirrors the copy_files parameter schema.
type copyFilesArgs struct {
	SourcePath      string `json:"source_path"`
	DestinationPath string `json:"destination_path"`
	FilePattern     string `json:"file_pattern"`
}

// addOppArgs mirrors the add_opportunity parameter schema.
type addOppArgs struct {
	CustomerName       string `json:"customer_name"`
	OppID              string `json:"opp_id"`
	OppName            string `json:"opp_name"`
	SubmissionDate     string `json:"submission_date"`
	TenderBriefingDate string `json:"tender_briefing_date"`
	Review1Date        string `json:"review1_date"`
	Review2Date        string `json:"review2_date"`
	AMName             string `json:"am_name"`
	Offshore           string `json:"offshore"`
	BCCReviewDate      string `json:"bcc_review_date"`
	DealSize           string `json:"deal_size"`
	Stage              string `json:"stage"`
	Details            string `json:"details"`
}

// updateOppArgs mirrors the update_opportunity parameter schema.
type updateOppArgs struct {
	OppID              string `json:"opp_id"`
	OppName            string `json:"opp_name"`
	NewOppID           string `json:"new_opp_id"`
	CustomerName       string `json:"customer_name"`
	SubmissionDate     string `json:"submission_date"`
	TenderBriefingDate string `json:"tender_briefing_date"`
	Review1Date        string `json:"review1_date"`
	Review2Date        string `json:"review2_date"`
	AMName             string `json:"am_name"`
	Offshore           string `json:"offshore"`
	BCCReviewDate      string `json:"bcc_review_date"`
	DealSize           string `json:"deal_size"`
	Stage              string `json:"stage"`
	Details            string `json:"details"`
}

type queryOppsArgs struct {
	SQLQuery string `json:"sql_query"`
}

type drawChartArgs struct {
	Request string `json:"request"`
}
