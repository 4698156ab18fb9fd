package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"go-clinic-management/pkg/response"

	"github.com/gorilla/mux"
)

// pathID reads a positive numeric path variable, writing a 400 when it is
// malformed.
func pathID(w http.ResponseWriter, r *http.Request, name, label string) (uint, bool) {
	id, err := strconv.ParseUint(mux.Vars(r)[name], 10, 64)
	if err != nil || id == 0 {
		response.Error(w, http.StatusBadRequest, "Invalid "+label+" ID", nil)
		return 0, false
	}
	return uint(id), true
}

// decodeBody decodes a JSON body into dst. An empty body is allowed when
// optional is set.
func decodeBody(w http.ResponseWriter, r *http.Request, dst interface{}, optional bool) bool {
	err := json.NewDecoder(r.Body).Decode(dst)
	if err == nil || (optional && errors.Is(err, io.EOF)) {
		return true
	}
	response.Error(w, http.StatusBadRequest, "Invalid request body", nil)
	return false
}
