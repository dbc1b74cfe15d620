package controllers

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/bahtera1/dashboard-manajemen-kos-overview/internal/models"
	"github.com/bahtera1/dashboard-manajemen-kos-overview/internal/services"
)

type RoomController struct {
	Rooms *services.RoomService
}

type roomRequest struct {
	Name         string          `json:"nama_kamar" binding:"required,max=50"`
	MonthlyPrice decimal.Decimal `json:"harga_bulanan"`
	Area         string          `json:"luas_kamar" binding:"max=50"`
	Facilities   []string        `json:"deskripsi_fasilitas"`
	Block        string          `json:"blok" binding:"required,max=10"`
	Floor        FlexibleInt     `json:"lantai"`
	Type         FlexibleInt     `json:"type"`
}

func (r roomRequest) input() services.RoomInput {
	typ := int(r.Type)
	if typ == 0 {
		typ = models.RoomTypeStandard
	}
	return services.RoomInput{
		Name:         r.Name,
		MonthlyPrice: r.MonthlyPrice,
		Area:         r.Area,
		Facilities:   r.Facilities,
		Block:        r.Block,
		Floor:        int(r.Floor),
		Type:         typ,
	}
}

func (rc *RoomController) ListRooms(c *gin.Context) {
	p := parseListParams(c, 20, "nama_kamar", map[string]string{
		"nama_kamar":    "name",
		"harga_bulanan": "monthly_price",
		"blok":          "block",
		"lantai":        "floor",
		"type":          "type",
		"created_at":    "created_at",
	})
	if c.Query("sort_dir") == "" {
		p.SortDir = "ASC"
	}
	available, ok := queryBool(c, "is_available")
	if !ok {
		return
	}
	f := services.RoomFilter{
		Search:    strings.TrimSpace(c.Query("q")),
		Block:     strings.TrimSpace(c.Query("blok")),
		Available: available,
		Order:     p.Order(),
	}
	if v := c.Query("lantai"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid lantai value"})
			return
		}
		f.Floor = &n
	}
	if v := c.Query("type"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid type value"})
			return
		}
		f.Type = n
	}
	if !p.All {
		f.Limit, f.Offset = p.Limit, p.Offset()
	}

	rooms, total, occupants, err := rc.Rooms.List(c.Request.Context(), f)
	if err != nil {
		respondError(c, err)
		return
	}
	out := make([]gin.H, 0, len(rooms))
	for _, r := range rooms {
		out = append(out, roomWithOccupant(r, occupants[r.ID]))
	}
	meta := p.Meta(total)
	if f.Search != "" {
		meta["q"] = f.Search
	}
	if available != nil {
		meta["is_available"] = *available
	}
	c.JSON(http.StatusOK, gin.H{"data": out, "meta": meta})
}

func (rc *RoomController) CreateRoom(c *gin.Context) {
	var req roomRequest
	if !bindJSON(c, &req) {
		return
	}
	room, err := rc.Rooms.Create(c.Request.Context(), req.input())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "Kamar berhasil ditambahkan", "data": roomJSON(*room)})
}

func (rc *RoomController) GetRoom(c *gin.Context) {
	id, ok := pathID(c, "room not found")
	if !ok {
		return
	}
	room, err := rc.Rooms.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": roomJSON(*room)})
}

func (rc *RoomController) UpdateRoom(c *gin.Context) {
	id, ok := pathID(c, "room not found")
	if !ok {
		return
	}
	var req roomRequest
	if !bindJSON(c, &req) {
		return
	}
	room, err := rc.Rooms.Update(c.Request.Context(), id, req.input())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Kamar berhasil diperbarui", "data": roomJSON(*room)})
}

func (rc *RoomController) DeleteRoom(c *gin.Context) {
	id, ok := pathID(c, "room not found")
	if !ok {
		return
	}
	if err := rc.Rooms.Delete(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Kamar berhasil dihapus"})
}

// ImportRooms bulk-creates rooms from a CSV upload (form field "file").
// Header columns, case-insensitive: nama_kamar, blok, lantai, type, harga_bulanan,
// luas_kamar (optional), fasilitas (optional, separated by "|").
func (rc *RoomController) ImportRooms(c *gin.Context) {
	if err := c.Request.ParseMultipartForm(10 << 20); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "failed to parse form"})
		return
	}
	file, header, err := c.Request.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file is required"})
		return
	}
	defer file.Close()
	if header == nil || !strings.HasSuffix(strings.ToLower(strings.TrimSpace(header.Filename)), ".csv") {
		c.JSON(http.StatusBadRequest, gin.H{"error": "only .csv files are allowed"})
		return
	}
	data, err := io.ReadAll(file)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "failed to read file"})
		return
	}
	rows, parseErrs, err := parseRoomCSV(data)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	res := rc.Rooms.Import(c.Request.Context(), rows)
	res.Total += len(parseErrs)
	res.Failures = append(parseErrs, res.Failures...)
	c.JSON(http.StatusOK, gin.H{"message": "import finished", "data": res})
}

// parseRoomCSV reads the upload into room inputs. Rows that cannot be parsed are
// returned as failures; a missing header column fails the whole file.
func parseRoomCSV(data []byte) ([]services.ImportRow, []services.ImportError, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, nil, fmt.Errorf("file is empty")
	}
	data = bytes.ReplaceAll(data, []byte{'\r', '\n'}, []byte{'\n'})
	data = bytes.ReplaceAll(data, []byte{'\r'}, []byte{'\n'})
	data = bytes.TrimPrefix(data, []byte{0xEF, 0xBB, 0xBF})

	firstLine := data
	if i := bytes.IndexByte(data, '\n'); i >= 0 {
		firstLine = data[:i]
	}
	reader := csv.NewReader(bytes.NewReader(data))
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1
	if bytes.Contains(firstLine, []byte{';'}) && !bytes.Contains(firstLine, []byte{','}) {
		reader.Comma = ';'
	}

	head, err := reader.Read()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read header")
	}
	idx := make(map[string]int, len(head))
	for i, col := range head {
		key := strings.ToLower(strings.Trim(strings.TrimSpace(col), "\"'"))
		if key != "" {
			idx[key] = i
		}
	}
	for _, key := range []string{"nama_kamar", "blok", "lantai", "type", "harga_bulanan"} {
		if _, ok := idx[key]; !ok {
			return nil, nil, fmt.Errorf("missing header column: %s", key)
		}
	}
	get := func(rec []string, key string) string {
		i, ok := idx[key]
		if !ok || i >= len(rec) {
			return ""
		}
		return strings.TrimSpace(rec[i])
	}

	var (
		rows     []services.ImportRow
		failures []services.ImportError
	)
	for line := 2; ; line++ {
		rec, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			failures = append(failures, services.ImportError{Row: line, Error: fmt.Sprintf("failed to read row: %v", err)})
			continue
		}
		name := get(rec, "nama_kamar")
		floor, ferr := strconv.Atoi(get(rec, "lantai"))
		typ, terr := strconv.Atoi(get(rec, "type"))
		price, perr := decimal.NewFromString(get(rec, "harga_bulanan"))
		switch {
		case ferr != nil:
			failures = append(failures, services.ImportError{Row: line, Name: name, Error: "lantai must be a number"})
			continue
		case terr != nil:
			failures = append(failures, services.ImportError{Row: line, Name: name, Error: "type must be a number"})
			continue
		case perr != nil:
			failures = append(failures, services.ImportError{Row: line, Name: name, Error: "harga_bulanan must be a number"})
			continue
		}
		var facilities []string
		if raw := get(rec, "fasilitas"); raw != "" {
			facilities = strings.Split(raw, "|")
		}
		rows = append(rows, services.ImportRow{Line: line, Input: services.RoomInput{
			Name:         name,
			MonthlyPrice: price,
			Area:         get(rec, "luas_kamar"),
			Facilities:   facilities,
			Block:        get(rec, "blok"),
			Floor:        floor,
			Type:         typ,
		}})
	}
	return rows, failures, nil
}
