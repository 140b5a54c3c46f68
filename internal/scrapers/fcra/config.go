package fcra

import "time"

type FormConfig struct {
	Url                  string `json:"url"`
	YearField            string `json:"year_field"`
	QuarterField         string `json:"quarter_field"`
	JurisdictionField    string `json:"jurisdiction_field"`
	SubJurisdictionField string `json:"sub_jurisdiction_field"`
	SubmitButton         string `json:"submit_button"`
	ResultTable          string `json:"result_table"`
	// TimeoutSeconds bounds every request made by the session.
	TimeoutSeconds int `json:"timeout_seconds"`
}

func DefaultFormConfig() FormConfig {
	return FormConfig{
		Url:                  "https://fcraonline.nic.in/fc_qtrfrm_report.aspx",
		YearField:            "ddl_block_year",
		QuarterField:         "ddl_qtr_returns",
		JurisdictionField:    "DdnListState",
		SubJurisdictionField: "DdnListdist",
		SubmitButton:         "Button1",
		ResultTable:          "GridView1",
		TimeoutSeconds:       30,
	}
}

func (c FormConfig) fieldId(field Field) string {
	switch field {
	case FieldYear:
		return c.YearField
	case FieldQuarter:
		return c.QuarterField
	case FieldJurisdiction:
		return c.JurisdictionField
	case FieldSubJurisdiction:
		return c.SubJurisdictionField
	}
	return ""
}

func (c FormConfig) timeout() time.Duration {
	return seconds(c.TimeoutSeconds, 30*time.Second)
}

type DocumentsConfig struct {
	Url string `json:"url"`
	// RequestsPerSecond is shared by every worker fetching documents.
	RequestsPerSecond float64 `json:"requests_per_second"`
	Burst             int     `json:"burst"`
	TimeoutSeconds    int     `json:"timeout_seconds"`
}

func DefaultDocumentsConfig() DocumentsConfig {
	return DocumentsConfig{
		Url:               "https://fcraonline.nic.in/Fc_qtrFrm_PDF.aspx",
		RequestsPerSecond: 1,
		Burst:             1,
		TimeoutSeconds:    60,
	}
}

func seconds(n int, fallback time.Duration) time.Duration {
	if n <= 0 {
		return fallback
	}
	return time.Duration(n) * time.Second
}
