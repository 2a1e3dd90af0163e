package handler

import (
    "bytes"
    "context"
    "errors"
    "fmt"
    "log"
    "net/http"
    "net/http/httptest"
    "os"
    "testing"

    "github.com/labstack/echo/v4"
    "github.com/stretchr/testify/require"

    "github.com/iliyamo/hotel-reservation/internal/reservation"
)

func errorResponse(t *testing.T, err error) (*httptest.ResponseRecorder, string) {
    t.Helper()
    var logs bytes.Buffer
    log.SetOutput(&logs)
    t.Cleanup(func() { log.SetOutput(os.Stderr) })

    rec := httptest.NewRecorder()
    c := echo.New().NewContext(httptest.NewRequest(http.MethodPost, "/v1/reservations", nil), rec)
    require.NoError(t, writeError(c, err))
    return rec, logs.String()
}

func TestWriteErrorClientGone(t *testing.T) {
    rec, logs := errorResponse(t, fmt.Errorf("find room: %w", context.Canceled))
    require.Equal(t, statusClientClosedRequest, rec.Code)
    require.Empty(t, rec.Body.String())
    require.Empty(t, logs)
}

func TestWriteErrorStatuses(t *testing.T) {
    cases := []struct {
        err  error
        code int
    }{
        {reservation.ErrInvalidDateRange, http.StatusBadRequest},
        {reservation.ErrCapacityExceeded, http.StatusUnprocessableEntity},
        {reservation.ErrRoomNotFound, http.StatusNotFound},
        {reservation.ErrRoomUnavailable, http.StatusConflict},
        {fmt.Errorf("%w: deadlock", reservation.ErrRetryable), http.StatusServiceUnavailable},
        {context.DeadlineExceeded, http.StatusServiceUnavailable},
    }
    for _, c := range cases {
        rec, logs := errorResponse(t, c.err)
        require.Equal(t, c.code, rec.Code, c.err.Error())
        require.Empty(t, logs)
    }

    rec, logs := errorResponse(t, errors.New("disk on fire"))
    require.Equal(t, http.StatusInternalServerError, rec.Code)
    require.Contains(t, logs, "disk on fire")
}
