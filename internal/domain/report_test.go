package domain

import (
	"testing"
	"time"

	json "github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunReport_Finalize_SortAndSummaryAndUTC(t *testing.T) {
	r := RunReport{
		Dir:        "/abs/path",
		Output:     "out",
		BatchSize:  2,
		StartedAt:  time.Date(2026, 2, 9, 10, 0, 0, 0, time.FixedZone("X", 8*3600)),
		FinishedAt: time.Date(2026, 2, 9, 10, 0, 1, 0, time.FixedZone("X", 8*3600)),
		Batches: []BatchResult{
			{Index: 1, Files: []FileResult{
				{Src: "/abs/path/c", Status: FileStatusFailed},
			}},
			{Index: 0, Files: []FileResult{
				{Src: "/abs/path/a", Status: FileStatusCopied, Bytes: 3},
				{Src: "/abs/path/b", Status: FileStatusCopied, Bytes: 4},
			}},
			{Index: 2, Files: []FileResult{
				{Src: "/abs/path/d", Status: FileStatusPlanned},
			}},
		},
	}

	r.Finalize()

	require.Len(t, r.Batches, 3)
	assert.Equal(t, []int{0, 1, 2}, []int{r.Batches[0].Index, r.Batches[1].Index, r.Batches[2].Index})
	assert.Equal(t, ReportSummary{Batches: 3, Files: 4, Copied: 2, Failed: 1, Bytes: 7}, r.Summary)
	assert.False(t, r.Aborted())

	b, err := json.Marshal(r)
	require.NoError(t, err)
	// time.Time 在 UTC 下应输出 'Z' 后缀。
	assert.Contains(t, string(b), `"started_at":"2026-02-09T02:00:00Z"`)
}

func TestRunReport_MarshalJSON_EmptySlices(t *testing.T) {
	r := RunReport{Batches: []BatchResult{{Index: 0}}}

	b, err := json.Marshal(r)
	require.NoError(t, err)
	assert.Contains(t, string(b), `"files":[]`)

	b, err = json.Marshal(RunReport{})
	require.NoError(t, err)
	assert.Contains(t, string(b), `"batches":[]`)
}

func TestBatchPlan_Dirs_Dedup(t *testing.T) {
	p := BatchPlan{Copies: []CopyPlan{
		{DstDir: "/x/out_0"},
		{DstDir: "/y/out_0"},
		{DstDir: "/x/out_0"},
	}}
	assert.Equal(t, []string{"/x/out_0", "/y/out_0"}, p.Dirs())
}
