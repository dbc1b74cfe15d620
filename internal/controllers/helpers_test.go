package controllers

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bahtera1/dashboard-manajemen-kos-overview/internal/lease"
	"github.com/bahtera1/dashboard-manajemen-kos-overview/internal/services"
)

func init() {
	gin.SetMode(gin.TestMode)
	UseJSONFieldNames()
}

func contextFor(method, target, body string) (*gin.Context, *httptest.ResponseRecorder) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	c.Request = req
	return c, w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	out := map[string]any{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

func TestParseRoomCSV(t *testing.T) {
	csv := "\xEF\xBB\xBFNama_Kamar;Blok;Lantai;Type;Harga_Bulanan;Fasilitas\r\n" +
		"Kamar 1;A;1;1;1200000;Kasur|AC\r\n" +
		"Kamar 2;A;dua;1;1200000;\r\n" +
		"Kamar 3;B;2;2;abc;\r\n" +
		"Kamar 4;B;2;x;900000\r\n"
	rows, failures, err := parseRoomCSV([]byte(csv))
	require.NoError(t, err)

	require.Len(t, rows, 1)
	assert.Equal(t, 2, rows[0].Line)
	assert.Equal(t, "Kamar 1", rows[0].Input.Name)
	assert.Equal(t, []string{"Kasur", "AC"}, rows[0].Input.Facilities)
	assert.Equal(t, "1200000", rows[0].Input.MonthlyPrice.String())

	require.Len(t, failures, 3)
	assert.Equal(t, services.ImportError{Row: 3, Name: "Kamar 2", Error: "lantai must be a number"}, failures[0])
	assert.Equal(t, "harga_bulanan must be a number", failures[1].Error)
	assert.Equal(t, "type must be a number", failures[2].Error)
}

func TestParseRoomCSVRejectsBadFiles(t *testing.T) {
	_, _, err := parseRoomCSV([]byte("   \n"))
	assert.EqualError(t, err, "file is empty")

	_, _, err = parseRoomCSV([]byte("nama_kamar,blok,lantai\nKamar 1,A,1\n"))
	assert.EqualError(t, err, "missing header column: type")
}

func TestParseListParams(t *testing.T) {
	sorts := map[string]string{"nama_kamar": "name", "created_at": "created_at"}

	c, _ := contextFor(http.MethodGet, "/x?limit=5&page=3&sort_by=created_at&sort_dir=asc", "")
	p := parseListParams(c, 20, "nama_kamar", sorts)
	assert.Equal(t, "created_at ASC", p.Order())
	assert.Equal(t, 10, p.Offset())
	meta := p.Meta(42)
	assert.EqualValues(t, 42, meta["total"])
	assert.Equal(t, 5, meta["limit"])

	c, _ = contextFor(http.MethodGet, "/x?limit=-1&page=zero&sort_by=drop+table&sort_dir=sideways&all=1", "")
	p = parseListParams(c, 20, "nama_kamar", sorts)
	assert.True(t, p.All)
	assert.Equal(t, 20, p.Limit)
	assert.Equal(t, 1, p.Page)
	assert.Equal(t, "name DESC", p.Order())
	assert.NotContains(t, p.Meta(1), "limit")
}

func TestRespondErrorStatus(t *testing.T) {
	cases := []struct {
		err  error
		code int
	}{
		{services.Validation("validation failed", map[string]string{"x": "required"}), http.StatusUnprocessableEntity},
		{services.ErrRoomNotFound, http.StatusNotFound},
		{services.ErrRoomOccupied, http.StatusConflict},
		{services.ErrAlreadyInactive, http.StatusBadRequest},
		{errors.New("disk on fire"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		c, w := contextFor(http.MethodGet, "/x", "")
		respondError(c, tc.err)
		assert.Equal(t, tc.code, w.Code, tc.err.Error())
	}

	c, w := contextFor(http.MethodGet, "/x", "")
	respondError(c, errors.New("disk on fire"))
	assert.Equal(t, "internal server error", decode(t, w)["error"])
}

func TestBindJSON(t *testing.T) {
	var req paymentRequest
	c, w := contextFor(http.MethodPost, "/x", `{"duration":"2","unit":"decade"}`)
	assert.False(t, bindJSON(c, &req))
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	errs := decode(t, w)["errors"].(map[string]any)
	assert.Equal(t, "must be one of day week month year", errs["unit"])

	c, w = contextFor(http.MethodPost, "/x", `{"duration":`)
	assert.False(t, bindJSON(c, &req))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	req = paymentRequest{}
	c, _ = contextFor(http.MethodPost, "/x", `{"duration":"2","unit":"week","jumlah":"150000.50"}`)
	require.True(t, bindJSON(c, &req))
	assert.Equal(t, FlexibleInt(2), req.Duration)
	assert.Equal(t, "150000.5", req.Amount.String())
}

func TestFlexibleTypes(t *testing.T) {
	var body struct {
		Room  FlexibleString `json:"kamar_id"`
		Floor FlexibleInt    `json:"lantai"`
		Day   Date           `json:"tanggal"`
		Empty Date           `json:"kosong"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"kamar_id":12,"lantai":"3","tanggal":"2025-01-31","kosong":null}`), &body))
	assert.Equal(t, "12", body.Room.String())
	assert.Equal(t, FlexibleInt(3), body.Floor)
	assert.Equal(t, "2025-01-31", body.Day.Format("2006-01-02"))
	assert.Nil(t, body.Empty.Ptr())
	assert.NotNil(t, body.Day.Ptr())

	assert.Error(t, json.Unmarshal([]byte(`{"lantai":"tiga"}`), &body))
	assert.Error(t, json.Unmarshal([]byte(`{"tanggal":"31/01/2025"}`), &body))

	out, err := json.Marshal(body.Day)
	require.NoError(t, err)
	assert.Equal(t, `"2025-01-31"`, string(out))
}

func TestPathID(t *testing.T) {
	c, w := contextFor(http.MethodGet, "/x", "")
	c.Params = gin.Params{{Key: "id", Value: "42"}}
	_, ok := pathID(c, "room not found")
	assert.False(t, ok)
	assert.Equal(t, http.StatusNotFound, w.Code)

	c, _ = contextFor(http.MethodGet, "/x", "")
	c.Params = gin.Params{{Key: "id", Value: " 7d8c1c1e-0000-4000-8000-000000000000 "}}
	id, ok := pathID(c, "room not found")
	assert.True(t, ok)
	assert.Equal(t, "7d8c1c1e-0000-4000-8000-000000000000", id)
}

func TestUnitNormalises(t *testing.T) {
	assert.Equal(t, lease.Week, unit("  WEEK "))
	assert.Equal(t, lease.Unit(""), unit(""))
	assert.Equal(t, lease.Unit("decade"), unit("Decade"))
}
