// Package collect gathers the final images of each realization of a
// multi-realization run into one batch folder.
//
// A realization rewrites every product under the case output trees, so the
// averaged noised LSST image and the monochromatic image of each case are
// copied out after the run reaches Complete. Copies are atomic; a folder
// never holds a partially written product.
package collect
