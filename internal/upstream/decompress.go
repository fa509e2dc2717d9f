package upstream

import (
	"bufio"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/andybalholm/brotli"
	"github.com/klauspost/compress/flate"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zlib"
	"github.com/klauspost/compress/zstd"
)

// decodedBody reads the innermost decoder and closes every decoder layer.
// The underlying resp.Body is left for the caller to close.
// decodedBody 는 가장 안쪽 디코더를 읽고 모든 디코더 계층을 닫습니다.
// 원본 resp.Body 는 호출자가 닫습니다.
type decodedBody struct {
	io.Reader
	closers []io.Closer
}

// Close closes the decoder layers, outermost last.
// Close 는 디코더 계층을 닫으며, 가장 바깥 계층을 마지막에 닫습니다.
func (d *decodedBody) Close() error {
	var errs []error
	for i := len(d.closers) - 1; i >= 0; i-- {
		if err := d.closers[i].Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// decompressBody returns a reader for the decoded body and whether decoding happened.
// Content-Encoding lists codings in the order they were applied, so they are undone
// from last to first. A list containing an unknown coding is passed through untouched.
// decompressBody 는 디코딩된 본문 reader 와 디코딩 여부를 반환합니다.
// Content-Encoding 은 적용 순서대로 나열되므로 마지막 것부터 되돌립니다.
// 알 수 없는 인코딩이 포함되면 본문을 그대로 전달합니다.
func decompressBody(resp *http.Response) (io.ReadCloser, bool, error) {
	passthrough := &decodedBody{Reader: resp.Body}

	var codings []string
	for _, token := range strings.Split(resp.Header.Get("Content-Encoding"), ",") {
		token = strings.TrimSpace(strings.ToLower(token))
		switch token {
		case "", "identity":
		case "gzip", "x-gzip", "deflate", "br", "zstd":
			codings = append(codings, token)
		default:
			return passthrough, false, nil
		}
	}
	if len(codings) == 0 {
		return passthrough, false, nil
	}

	body := &decodedBody{Reader: resp.Body}
	for i := len(codings) - 1; i >= 0; i-- {
		if err := body.push(codings[i]); err != nil {
			_ = body.Close()
			return nil, false, err
		}
	}
	return body, true, nil
}

// push wraps the current reader with a decoder for coding.
// push 는 현재 reader 를 coding 에 맞는 디코더로 감쌉니다.
func (d *decodedBody) push(coding string) error {
	switch coding {
	case "gzip", "x-gzip":
		reader, err := gzip.NewReader(d.Reader)
		if err != nil {
			return err
		}
		d.Reader = reader
		d.closers = append(d.closers, reader)
	case "deflate":
		reader, err := newDeflateReader(d.Reader)
		if err != nil {
			return err
		}
		d.Reader = reader
		d.closers = append(d.closers, reader)
	case "br":
		d.Reader = brotli.NewReader(d.Reader)
	case "zstd":
		decoder, err := zstd.NewReader(d.Reader)
		if err != nil {
			return err
		}
		rc := decoder.IOReadCloser()
		d.Reader = rc
		d.closers = append(d.closers, rc)
	}
	return nil
}

// newDeflateReader decodes HTTP deflate, which is zlib-wrapped. Some servers send raw
// DEFLATE instead, so a stream without a valid zlib header is read as raw flate.
// newDeflateReader 는 zlib 으로 감싼 HTTP deflate 를 디코딩합니다. 일부 서버는 원시
// DEFLATE 를 보내므로 zlib 헤더가 유효하지 않으면 원시 flate 로 읽습니다.
func newDeflateReader(r io.Reader) (io.ReadCloser, error) {
	buffered := bufio.NewReader(r)
	header, err := buffered.Peek(2)
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}
	if isZlibHeader(header) {
		return zlib.NewReader(buffered)
	}
	return flate.NewReader(buffered), nil
}

// isZlibHeader checks the CMF/FLG pair from RFC 1950: method 8 and a header checksum divisible by 31.
// isZlibHeader 는 RFC 1950 의 CMF/FLG 쌍을 확인합니다: 압축 방식 8, 31 로 나누어떨어지는 헤더 체크섬.
func isZlibHeader(header []byte) bool {
	if len(header) < 2 {
		return false
	}
	cmf, flg := header[0], header[1]
	return cmf&0x0f == 8 && (uint16(cmf)<<8|uint16(flg))%31 == 0
}
