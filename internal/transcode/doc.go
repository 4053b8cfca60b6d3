// Package transcode turns a rendered image sequence into an H.264 review
// movie with ffmpeg. Before each encode the literal command is written to a
// shell script next to the checkpoint backups so it can be replayed by hand.
package transcode
