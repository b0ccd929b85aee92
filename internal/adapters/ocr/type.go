package ocr

import "encoding/json"

type parseResponse struct {
	ParsedResults         []parsedResult `json:"ParsedResults"`
	OCRExitCode           int            `json:"OCRExitCode"`
	IsErroredOnProcessing bool           `json:"IsErroredOnProcessing"`
	ErrorMessage          flexString     `json:"ErrorMessage"`
	ErrorMessageDetails   flexString     `json:"ErrorMessageDetails"`
	ProcessingTimeMS      string         `json:"ProcessingTimeInMilliseconds"`
}

type parsedResult struct {
	ParsedText        string     `json:"ParsedText"`
	FileParseExitCode int        `json:"FileParseExitCode"`
	ErrorMessage      flexString `json:"ErrorMessage"`
}

// flexString absorbs fields the service returns either as a string or as
// a list of strings, keeping the first entry in the latter case.
type flexString string

func (f *flexString) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*f = flexString(s)
		return nil
	}
	var list []string
	if err := json.Unmarshal(data, &list); err != nil {
		return err
	}
	if len(list) > 0 {
		*f = flexString(list[0])
	}
	return nil
}

// errorMessage picks the most specific cause the response carries.
func (r *parseResponse) errorMessage() string {
	if r.ErrorMessage != "" {
		return string(r.ErrorMessage)
	}
	if r.ErrorMessageDetails != "" {
		return string(r.ErrorMessageDetails)
	}
	return "unknown ocr error"
}
