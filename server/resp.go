package server

type Response struct {
	Code int         `json:"code"`
	Msg  string      `json:"msg"`
	Data interface{} `json:"data"`
}

func newResponse(code int, msg string) Response {
	return Response{Code: code, Msg: msg}
}

func (r Response) WithData(data interface{}) Response {
	r.Data = data
	return r
}

var (
	OK          = newResponse(0, "success")
	ErrNoReport = newResponse(10001, "no run completed yet")
)
