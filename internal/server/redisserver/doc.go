// Package redisserver provides a Redis protocol compatible front end to the
// task list.
//
// It implements the RESP2 subset needed to treat the list as a Redis list
// named "tasks":
//   - PING, ECHO, QUIT
//   - RPUSH, LLEN, LINDEX, LRANGE
//   - JOURNAL (entries appended by this connection)
//
// Every connection is its own execution context. Its journal is opened on
// the first RPUSH and closed when the connection ends.
package redisserver
