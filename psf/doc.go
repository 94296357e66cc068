/*package psf provides fittable point-spread function models for stellar
photometry. An ImagePSF wraps a single sampled PSF image in a continuous
function of position and flux, and a GriddedPSF interpolates a library of
reference PSFs tagged with detector positions so that the PSF can be evaluated
anywhere in the field of view. Both expose the same evaluation contract,
Evaluate(x, y, flux, x0, y0), which is what least-squares fitting drivers call
repeatedly while optimizing source parameters.
*/
package psf
