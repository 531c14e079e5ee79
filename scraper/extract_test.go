package scraper

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDetectHistoryFlags(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    HistoryFlags
	}{
		{
			name:    "one owner and no accidents",
			content: "<div>One Owner</div><p>No Accidents Reported</p>",
			want:    HistoryFlags{OneOwner: true, NoAccidents: true},
		},
		{
			name:    "hyphenated owner count",
			content: "CARFAX 1-Owner vehicle",
			want:    HistoryFlags{OneOwner: true},
		},
		{
			name:    "accident free and maintenance records",
			content: "Accident Free. 12 Maintenance Records on file.",
			want:    HistoryFlags{NoAccidents: true, ServiceRecords: true},
		},
		{
			name:    "service records",
			content: "7 service records",
			want:    HistoryFlags{ServiceRecords: true},
		},
		{
			name:    "personal use phrase",
			content: "Personal Use vehicle",
			want:    HistoryFlags{PersonalUse: true},
		},
		{
			name:    "personal and use in unrelated sentences",
			content: "Contact your personal advisor. Terms of use apply.",
			want:    HistoryFlags{PersonalUse: true},
		},
		{
			name:    "personal without use",
			content: "personal vehicle",
			want:    HistoryFlags{},
		},
		{
			name:    "nothing matches",
			content: "<html><body>Report unavailable</body></html>",
			want:    HistoryFlags{},
		},
		{
			name:    "empty",
			content: "",
			want:    HistoryFlags{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DetectHistoryFlags(tt.content))
		})
	}
}

func TestDetectHistoryFlags_Deterministic(t *testing.T) {
	content := "ONE OWNER · No Accidents · Service Records · personal lease use"
	first := DetectHistoryFlags(content)
	for i := 0; i < 5; i++ {
		assert.Equal(t, first, DetectHistoryFlags(content))
	}
}

func TestParseVehicleInfo(t *testing.T) {
	tests := []struct {
		name   string
		text   string
		want   VehicleDescriptor
		wantOK bool
	}{
		{
			name:   "multi-word model",
			text:   "2024 Ford F-150 XLT\nMore text",
			want:   VehicleDescriptor{Year: "2024", Make: "Ford", Model: "F-150 XLT"},
			wantOK: true,
		},
		{
			name:   "exactly three tokens",
			text:   "2019 Honda Civic",
			want:   VehicleDescriptor{Year: "2019", Make: "Honda", Model: "Civic"},
			wantOK: true,
		},
		{
			name:   "irregular whitespace collapses",
			text:   "  2021\tToyota   Tacoma  TRD  \r\nMSRP $40,000",
			want:   VehicleDescriptor{Year: "2021", Make: "Toyota", Model: "Tacoma TRD"},
			wantOK: true,
		},
		{
			name:   "too few tokens",
			text:   "2024 Ford\nF-150",
			wantOK: false,
		},
		{
			name:   "empty first line",
			text:   "\n2024 Ford F-150",
			wantOK: false,
		},
		{
			name:   "empty",
			text:   "",
			wantOK: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseVehicleInfo(tt.text)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCarfaxReportURL_EscapesVIN(t *testing.T) {
	assert.Equal(t, "https://www.carfax.com/api/vehicle-history/1FTFW1ET5BFC12345", CarfaxReportURL("1FTFW1ET5BFC12345"))
	assert.Equal(t, "https://www.carfax.com/api/vehicle-history/a%2Fb", CarfaxReportURL("a/b"))
}
