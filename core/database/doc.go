// Package database manages the connection to the platform's MySQL database
// through GORM, with sane pool limits and a bounded startup ping.
package database
