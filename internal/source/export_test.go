package source

// SetMaxBody lowers the response size limit.
func (s *httpSource) SetMaxBody(n int64) {
	s.maxBody = n
}
